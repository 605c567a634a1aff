package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMapsLockedEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusLocked)
		_, _ = w.Write([]byte(`{"error":{"code":"RECORD_LOCKED","message":"record is locked by 박선생"}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	err := c.AcquireLock(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, KindLocked, Kind(err))
	assert.Contains(t, err.Error(), "박선생")
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	c.SetTokens("tok-123", "")
	require.NoError(t, c.ReleaseLock(context.Background(), 1))
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClientUnauthorizedKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	err := c.RefreshToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, Kind(err))
}
