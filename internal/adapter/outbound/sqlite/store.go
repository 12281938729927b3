// Package sqlite provides the SQLite-backed session store.
//
// SQLite transactions supply the atomic read-check-write the domain
// requires: the idempotent-create and the copy-then-delete each run inside
// a single transaction, and no locking happens above this layer.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/session-desk/sessiondesk/internal/domain/session"
)

// timeFormat pads nanoseconds so stored UTC timestamps compare
// lexicographically, which ORDER BY and the expiry sweep rely on.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	region     TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS deleted_sessions (
	id         TEXT PRIMARY KEY,
	region     TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	deleted_at TEXT NOT NULL,
	expires_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deleted_sessions_deleted_at
	ON deleted_sessions (deleted_at);

CREATE TABLE IF NOT EXISTS idempotency_records (
	key_hash   TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	expires_at TEXT NOT NULL
);
`

// Store implements session.Store backed by a SQLite database file.
type Store struct {
	db *sql.DB

	deletedTTL     time.Duration
	idempotencyTTL time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithDeletedTTL sets the retention window for soft-delete snapshots.
func WithDeletedTTL(d time.Duration) Option {
	return func(s *Store) { s.deletedTTL = d }
}

// WithIdempotencyTTL sets the retention window for idempotency records.
func WithIdempotencyTTL(d time.Duration) Option {
	return func(s *Store) { s.idempotencyTTL = d }
}

// Open opens (creating if needed) a SQLite store at the provided path.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// A single connection serializes transactions and avoids lock-upgrade
	// busy errors on concurrent read-then-write transactions.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{
		db:             db,
		deletedTTL:     session.DefaultDeletedTTL,
		idempotencyTTL: session.DefaultIdempotencyTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create inserts a new pending session.
func (s *Store) Create(ctx context.Context, region string) (*session.Session, error) {
	now := time.Now().UTC()
	sess := &session.Session{
		ID:        uuid.NewString(),
		Region:    region,
		Status:    session.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, region, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Region, string(sess.Status),
		now.Format(timeFormat), now.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// CreateIdempotent resolves keyHash inside one transaction: an existing
// record returns its session unchanged; otherwise a new session and the
// record are written together. SQLite serializes writers, so concurrent
// calls with the same keyHash cannot both insert.
func (s *Store) CreateIdempotent(ctx context.Context, region, keyHash string) (*session.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin idempotent create: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	var existingID, expiresAt string
	err = tx.QueryRowContext(ctx,
		`SELECT session_id, expires_at FROM idempotency_records WHERE key_hash = ?`, keyHash,
	).Scan(&existingID, &expiresAt)
	switch {
	case err == nil:
		expiry, perr := time.Parse(timeFormat, expiresAt)
		if perr != nil {
			return nil, fmt.Errorf("%w: idempotency expires_at %q", session.ErrMalformedRecord, expiresAt)
		}
		if now.Before(expiry) {
			sess, gerr := scanSession(tx.QueryRowContext(ctx,
				`SELECT id, region, status, created_at, updated_at FROM sessions WHERE id = ?`, existingID))
			if gerr != nil {
				return nil, gerr
			}
			if cerr := tx.Commit(); cerr != nil {
				return nil, fmt.Errorf("commit idempotent create: %w", cerr)
			}
			return sess, nil
		}
		// Record outlived its TTL; replace it below.
		if _, derr := tx.ExecContext(ctx,
			`DELETE FROM idempotency_records WHERE key_hash = ?`, keyHash); derr != nil {
			return nil, fmt.Errorf("replace idempotency record: %w", derr)
		}

	case errors.Is(err, sql.ErrNoRows):
		// No record: fall through to creation.

	default:
		return nil, fmt.Errorf("read idempotency record: %w", err)
	}

	sess := &session.Session{
		ID:        uuid.NewString(),
		Region:    region,
		Status:    session.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, region, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Region, string(sess.Status),
		now.Format(timeFormat), now.Format(timeFormat),
	); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO idempotency_records (key_hash, session_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		keyHash, sess.ID,
		now.Format(timeFormat), now.Add(s.idempotencyTTL).Format(timeFormat),
	); err != nil {
		return nil, fmt.Errorf("insert idempotency record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit idempotent create: %w", err)
	}
	return sess, nil
}

// Get retrieves a session by ID.
func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	return scanSession(s.db.QueryRowContext(ctx,
		`SELECT id, region, status, created_at, updated_at FROM sessions WHERE id = ?`, id))
}

// List returns sessions matching the equality filters, ordered by created_at.
func (s *Store) List(ctx context.Context, filter session.ListFilter) ([]session.Session, error) {
	query := `SELECT id, region, status, created_at, updated_at FROM sessions`
	var conds []string
	var args []any
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Region != "" {
		conds = append(conds, "region = ?")
		args = append(args, filter.Region)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var result []session.Session
	for rows.Next() {
		var id, region, status, createdAt, updatedAt string
		if err := rows.Scan(&id, &region, &status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sess, err := buildSession(id, region, status, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return result, nil
}

// UpdateRegion sets the region and bumps updated_at.
func (s *Store) UpdateRegion(ctx context.Context, id, region string) (*session.Session, error) {
	return s.update(ctx, id, func(sess *session.Session) {
		sess.Region = region
	})
}

// UpdateStatus overwrites the status unconditionally and bumps updated_at.
func (s *Store) UpdateStatus(ctx context.Context, id string, status session.Status) (*session.Session, error) {
	return s.update(ctx, id, func(sess *session.Session) {
		sess.Status = status
	})
}

// update runs an existence check followed by a field update in one
// transaction, keeping updated_at non-decreasing.
func (s *Store) update(ctx context.Context, id string, mutate func(*session.Session)) (*session.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sess, err := scanSession(tx.QueryRowContext(ctx,
		`SELECT id, region, status, created_at, updated_at FROM sessions WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	mutate(sess)
	now := time.Now().UTC()
	if now.After(sess.UpdatedAt) {
		sess.UpdatedAt = now
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET region = ?, status = ?, updated_at = ? WHERE id = ?`,
		sess.Region, string(sess.Status), sess.UpdatedAt.Format(timeFormat), sess.ID,
	); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return sess, nil
}

// Delete soft-deletes: within one transaction it copies the live row into
// deleted_sessions with deletion bookkeeping and removes the original.
// Returns false without error when the session doesn't exist.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sess, err := scanSession(tx.QueryRowContext(ctx,
		`SELECT id, region, status, created_at, updated_at FROM sessions WHERE id = ?`, id))
	if errors.Is(err, session.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO deleted_sessions (id, region, status, created_at, updated_at, deleted_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Region, string(sess.Status),
		sess.CreatedAt.Format(timeFormat), sess.UpdatedAt.Format(timeFormat),
		now.Format(timeFormat), now.Add(s.deletedTTL).Format(timeFormat),
	); err != nil {
		return false, fmt.Errorf("insert deleted snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("delete session row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	return true, nil
}

// ListDeleted returns non-expired snapshots ordered by deleted_at descending.
func (s *Store) ListDeleted(ctx context.Context) ([]session.DeletedSession, error) {
	now := time.Now().UTC()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, region, status, created_at, updated_at, deleted_at, expires_at
		 FROM deleted_sessions ORDER BY deleted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list deleted sessions: %w", err)
	}
	defer rows.Close()

	var result []session.DeletedSession
	for rows.Next() {
		var id, region, status, createdAt, updatedAt, deletedAt, expiresAt string
		if err := rows.Scan(&id, &region, &status, &createdAt, &updatedAt, &deletedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan deleted session row: %w", err)
		}
		sess, err := buildSession(id, region, status, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		deleted, err := parseStoredTime("deleted_at", deletedAt)
		if err != nil {
			return nil, err
		}
		expires, err := parseStoredTime("expires_at", expiresAt)
		if err != nil {
			return nil, err
		}
		snap := session.DeletedSession{Session: *sess, DeletedAt: deleted, ExpiresAt: expires}
		if snap.IsExpired(now) {
			continue
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted sessions: %w", err)
	}
	return result, nil
}

// scanSession maps a single-row query onto a Session, translating
// sql.ErrNoRows to session.ErrNotFound and shape failures to
// session.ErrMalformedRecord.
func scanSession(row *sql.Row) (*session.Session, error) {
	var id, region, status, createdAt, updatedAt string
	err := row.Scan(&id, &region, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return buildSession(id, region, status, createdAt, updatedAt)
}

// buildSession validates stored fields. A row that exists but fails shape
// validation is an internal error, never silently coerced.
func buildSession(id, region, status, createdAt, updatedAt string) (*session.Session, error) {
	if !session.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: status %q", session.ErrMalformedRecord, status)
	}
	created, err := parseStoredTime("created_at", createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseStoredTime("updated_at", updatedAt)
	if err != nil {
		return nil, err
	}
	return &session.Session{
		ID:        id,
		Region:    region,
		Status:    session.Status(status),
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func parseStoredTime(field, value string) (time.Time, error) {
	t, err := time.Parse(timeFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", session.ErrMalformedRecord, field, value)
	}
	return t.UTC(), nil
}

// Compile-time interface verification.
var _ session.Store = (*Store)(nil)
