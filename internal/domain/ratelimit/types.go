// Package ratelimit provides rate limiting domain types.
package ratelimit

import (
	"time"
)

// Operation identifies a rate-limited write operation. Each operation has an
// independent (window, max) pair; read and list operations are unmetered.
type Operation string

const (
	OpCreate       Operation = "create"
	OpUpdate       Operation = "update"
	OpUpdateStatus Operation = "update_status"
	OpComplete     Operation = "complete"
	OpFail         Operation = "fail"
	OpDelete       Operation = "delete"
)

// Config defines the fixed-window parameters for one operation.
type Config struct {
	// Window is the length of the counting window.
	Window time.Duration

	// Max is the number of requests allowed per window per key.
	Max int
}

// Result contains the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// RetryAfter is the duration until the current window resets.
	// Only meaningful when Allowed is false; never negative.
	RetryAfter time.Duration
}

// Key builds the bucket key for a request: the authenticated subject (or
// "unknown" when unauthenticated) joined with the client IP. Scoping by both
// keeps one tenant behind a NAT from exhausting another's budget.
func Key(subject, ip string) string {
	if subject == "" {
		subject = "unknown"
	}
	return subject + ":" + ip
}
