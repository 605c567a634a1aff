package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is a minimal HTTP client for the record and token endpoints. It
// implements RecordAPI and TokenAPI, translating HTTP failures into tagged
// APIError values at the boundary.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.Mutex
	token   string
	refresh string
}

// NewClient builds a client for the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTokens installs the bearer and refresh tokens after a login.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	c.token = access
	c.refresh = refresh
	c.mu.Unlock()
}

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindValidation, Message: err.Error()}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return toAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{Kind: KindNetwork, Message: "malformed response"}
		}
	}
	return nil
}

func toAPIError(resp *http.Response) *APIError {
	message := resp.Status
	var envelope errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != nil {
		message = envelope.Error.Message
	}

	kind := KindNetwork
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		kind = KindUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		kind = KindForbidden
	case resp.StatusCode == http.StatusLocked:
		kind = KindLocked
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		kind = KindValidation
	}
	return &APIError{Kind: kind, Message: message}
}

// AcquireLock takes the edit lock for a record.
func (c *Client) AcquireLock(ctx context.Context, recordID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/records/%d/lock", recordID), nil, nil)
}

// ReleaseLock drops the edit lock.
func (c *Client) ReleaseLock(ctx context.Context, recordID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/records/%d/lock", recordID), nil, nil)
}

// ExtendLock renews the edit lock TTL.
func (c *Client) ExtendLock(ctx context.Context, recordID int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/records/%d/lock/extend", recordID), nil, nil)
}

// SaveRecord writes new record content.
func (c *Client) SaveRecord(ctx context.Context, recordID int64, content string) error {
	payload := map[string]string{"content": content}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/records/%d", recordID), payload, nil)
}

// RefreshToken exchanges the stored refresh token for a fresh pair.
func (c *Client) RefreshToken(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refresh
	c.mu.Unlock()

	var result struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	payload := map[string]string{"refresh_token": refresh}
	if err := c.do(ctx, http.MethodPost, "/token/refresh", payload, &result); err != nil {
		return err
	}
	if result.Data.AccessToken != "" {
		c.mu.Lock()
		c.token = result.Data.AccessToken
		c.mu.Unlock()
	}
	return nil
}
