package client

import "fmt"

// ErrorKind tags API failures so callers can branch without probing
// response shapes.
type ErrorKind string

const (
	// KindUnauthorized means the session is gone; the caller must log out.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindForbidden means the action was rejected by policy.
	KindForbidden ErrorKind = "forbidden"
	// KindLocked means another user holds the record lock.
	KindLocked ErrorKind = "locked"
	// KindValidation means the payload was rejected.
	KindValidation ErrorKind = "validation"
	// KindNetwork covers transport failures and unexpected server errors.
	KindNetwork ErrorKind = "network"
)

// APIError is the tagged error surfaced at the HTTP-client boundary.
type APIError struct {
	Kind    ErrorKind
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Kind extracts the tag from an error, defaulting to KindNetwork for
// anything untagged.
func Kind(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Kind
	}
	return KindNetwork
}
