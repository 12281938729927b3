package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a session doesn't exist (or was soft-deleted).
var ErrNotFound = errors.New("session not found")

// ErrMalformedRecord is returned when a stored document exists but fails
// shape validation (unknown status, bad timestamp). Never silently coerced;
// the transport maps it to an internal error.
var ErrMalformedRecord = errors.New("malformed session record")

// ListFilter narrows List results. Both fields are optional equality
// filters combined with AND semantics.
type ListFilter struct {
	Status Status
	Region string
}

// Store provides session persistence.
// Implementations: SQLite (prod), in-memory (dev/test).
//
// CreateIdempotent and Delete must be atomic: the store's own transaction
// primitive is the sole correctness mechanism, and callers never add locking
// on top of it.
type Store interface {
	// Create inserts a new session with a store-assigned ID,
	// status pending, and CreatedAt == UpdatedAt.
	Create(ctx context.Context, region string) (*Session, error)

	// CreateIdempotent behaves like Create, keyed by keyHash (the hex
	// SHA-256 of the caller's idempotency token). If a record for keyHash
	// exists the session it points at is returned unchanged; otherwise a
	// new session and the record are written in one transaction.
	// Concurrent calls with the same keyHash yield exactly one session.
	CreateIdempotent(ctx context.Context, region, keyHash string) (*Session, error)

	// Get retrieves a session by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Session, error)

	// List returns sessions matching the filter. Ordering is the store
	// default; no pagination.
	List(ctx context.Context, filter ListFilter) ([]Session, error)

	// UpdateRegion sets the region and bumps UpdatedAt.
	// Returns ErrNotFound if absent.
	UpdateRegion(ctx context.Context, id, region string) (*Session, error)

	// UpdateStatus overwrites the status unconditionally (no transition
	// validation) and bumps UpdatedAt. Returns ErrNotFound if absent.
	UpdateStatus(ctx context.Context, id string, status Status) (*Session, error)

	// Delete soft-deletes: within one transaction it writes a
	// DeletedSession snapshot and removes the live row. Returns false
	// (and no error) when the session doesn't exist.
	Delete(ctx context.Context, id string) (bool, error)

	// ListDeleted returns non-expired soft-delete snapshots ordered by
	// DeletedAt descending.
	ListDeleted(ctx context.Context) ([]DeletedSession, error)
}
