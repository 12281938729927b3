package sessiondesk

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound is returned when the requested session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrUnauthenticated is returned when the API key is missing or invalid.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrRateLimited is returned when the server rejects the request for
	// exceeding the operation's rate limit.
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a structured error returned by the SessionDesk server.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Code is the machine-readable error code, e.g. "invalid_argument".
	Code string
	// Message is the human-readable error message.
	Message string
	// Details carries code-specific context, e.g. allowed values.
	Details map[string]any
}

// Error returns the error message.
func (e *APIError) Error() string {
	return fmt.Sprintf("sessiondesk [%s]: %s", e.Code, e.Message)
}

// Is reports whether this error matches the target sentinel.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == "not_found"
	case ErrUnauthenticated:
		return e.Code == "unauthenticated"
	case ErrRateLimited:
		return e.Code == "resource_exhausted"
	}
	return false
}

// RateLimitedError is returned when the server denies a request for
// exceeding the operation's rate limit. It carries the wait hint from
// the response so callers can back off precisely.
type RateLimitedError struct {
	// APIError is the underlying structured error.
	APIError

	// RetryAfter is how long to wait before retrying.
	RetryAfter time.Duration
}

// Error returns a human-readable description including the wait hint.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("sessiondesk [%s]: %s (retry after %s)", e.Code, e.Message, e.RetryAfter)
}
