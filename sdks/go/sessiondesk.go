// Package sessiondesk provides a Go SDK for the SessionDesk session API.
//
// SessionDesk is the backend for a session administration console. This SDK
// lets Go programs create, inspect, and transition sessions over the JSON
// API. It uses only the Go standard library (net/http) with zero external
// dependencies.
//
// Quick start:
//
//	// Set SESSIONDESK_SERVER_ADDR and SESSIONDESK_API_KEY env vars, then:
//	client := sessiondesk.NewClient()
//
//	sess, err := client.CreateSession(ctx, "us-east-1",
//	    sessiondesk.WithIdempotencyKey("order-42"))
//	if err != nil {
//	    var rateLimited *sessiondesk.RateLimitedError
//	    if errors.As(err, &rateLimited) {
//	        time.Sleep(rateLimited.RetryAfter)
//	    }
//	}
package sessiondesk

import "time"

// Session statuses.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Session is a session resource as returned by the server.
type Session struct {
	// SessionID is the server-assigned unique identifier.
	SessionID string `json:"sessionId"`

	// Region is the deployment region the session runs in.
	Region string `json:"region"`

	// Status is one of the Status* constants.
	Status string `json:"status"`

	// CreatedAt is when the session was created (UTC).
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the session was last modified (UTC).
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeletedSession is a recoverable snapshot of a deleted session.
type DeletedSession struct {
	Session

	// DeletedAt is when the session was deleted (UTC).
	DeletedAt time.Time `json:"deletedAt"`

	// ExpiresAt is when the snapshot stops being listed (UTC).
	ExpiresAt time.Time `json:"expiresAt"`
}

// Stats summarizes the current session population.
type Stats struct {
	// Total is the number of live sessions.
	Total int `json:"total"`

	// ByStatus maps each status to its session count. Every status key
	// is present, zero-valued when no sessions hold it.
	ByStatus map[string]int `json:"byStatus"`
}

// ListFilter narrows ListSessions results. Zero-value fields are ignored.
type ListFilter struct {
	// Status keeps only sessions with this status.
	Status string

	// Region keeps only sessions in this region.
	Region string
}
