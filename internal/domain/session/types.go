// Package session defines the session resource tracked by the admin console.
package session

import "time"

// Status is the lifecycle status of a session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Statuses lists all valid statuses in declaration order.
// Used by validation error details and the stats endpoint.
var Statuses = []Status{StatusPending, StatusActive, StatusCompleted, StatusFailed}

// IsValidStatus reports whether s is one of the four status literals.
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusActive, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Session is the primary resource: a unit of work with a region and a
// lifecycle status. The ID is assigned by the store on create and is
// immutable afterwards. Status transitions are deliberately unconstrained;
// any status may be overwritten with any other.
type Session struct {
	// ID is an opaque identifier assigned on create.
	ID string
	// Region is a non-empty, trimmed region name. Mutable.
	Region string
	// Status is one of the four Status literals.
	Status Status
	// CreatedAt is when the session was created (UTC).
	CreatedAt time.Time
	// UpdatedAt bumps on every mutation and never moves backwards (UTC).
	UpdatedAt time.Time
}

// DeletedSession is the tombstone written when a live session is soft-deleted.
// It carries the full session snapshot plus deletion bookkeeping.
type DeletedSession struct {
	Session
	// DeletedAt is when the soft delete happened (UTC).
	DeletedAt time.Time
	// ExpiresAt is when the snapshot may be purged (UTC).
	ExpiresAt time.Time
}

// IsExpired reports whether the snapshot has passed its retention window.
func (d *DeletedSession) IsExpired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// IdempotencyRecord maps a caller-supplied idempotency token (stored as a
// hash) to the session it created. At most one record exists per token.
type IdempotencyRecord struct {
	// Key is the hex SHA-256 of the caller's Idempotency-Key header.
	Key string
	// SessionID identifies the session the first call created.
	SessionID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Default retention windows. Both match the original deployment defaults
// and are overridable via config.
const (
	DefaultDeletedTTL     = 24 * time.Hour
	DefaultIdempotencyTTL = 24 * time.Hour
)
