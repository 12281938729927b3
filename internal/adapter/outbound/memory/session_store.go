package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/session-desk/sessiondesk/internal/domain/session"
)

// SessionStore implements session.Store with mutex-protected maps.
// Thread-safe for concurrent access. Used for development and tests; the
// atomicity of CreateIdempotent and Delete falls out of the store lock.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*session.Session
	deleted     map[string]*session.DeletedSession
	idempotency map[string]*session.IdempotencyRecord

	deletedTTL     time.Duration
	idempotencyTTL time.Duration
}

// NewSessionStore creates an in-memory session store with default TTLs.
func NewSessionStore() *SessionStore {
	return NewSessionStoreWithTTL(session.DefaultDeletedTTL, session.DefaultIdempotencyTTL)
}

// NewSessionStoreWithTTL creates an in-memory session store with custom
// retention windows for deleted snapshots and idempotency records.
func NewSessionStoreWithTTL(deletedTTL, idempotencyTTL time.Duration) *SessionStore {
	return &SessionStore{
		sessions:       make(map[string]*session.Session),
		deleted:        make(map[string]*session.DeletedSession),
		idempotency:    make(map[string]*session.IdempotencyRecord),
		deletedTTL:     deletedTTL,
		idempotencyTTL: idempotencyTTL,
	}
}

// newSession allocates a fresh pending session. Caller holds the lock.
func newSession(region string) *session.Session {
	now := time.Now().UTC()
	return &session.Session{
		ID:        uuid.NewString(),
		Region:    region,
		Status:    session.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Create inserts a new pending session.
func (s *SessionStore) Create(ctx context.Context, region string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := newSession(region)
	s.sessions[sess.ID] = sess
	return copySession(sess), nil
}

// CreateIdempotent returns the session a previous call with the same keyHash
// created, or creates a new session and the dedup record under one lock.
func (s *SessionStore) CreateIdempotent(ctx context.Context, region, keyHash string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	if rec, ok := s.idempotency[keyHash]; ok && now.Before(rec.ExpiresAt) {
		if existing, ok := s.sessions[rec.SessionID]; ok {
			return copySession(existing), nil
		}
		// Record points at a session that was since deleted.
		return nil, session.ErrNotFound
	}

	sess := newSession(region)
	s.sessions[sess.ID] = sess
	s.idempotency[keyHash] = &session.IdempotencyRecord{
		Key:       keyHash,
		SessionID: sess.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.idempotencyTTL),
	}
	return copySession(sess), nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return copySession(sess), nil
}

// List returns sessions matching the equality filters, ordered by CreatedAt
// ascending for a stable default.
func (s *SessionStore) List(ctx context.Context, filter session.ListFilter) ([]session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if filter.Status != "" && sess.Status != filter.Status {
			continue
		}
		if filter.Region != "" && sess.Region != filter.Region {
			continue
		}
		result = append(result, *copySession(sess))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateRegion sets the region and bumps UpdatedAt.
func (s *SessionStore) UpdateRegion(ctx context.Context, id, region string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	sess.Region = region
	sess.UpdatedAt = bump(sess.UpdatedAt)
	return copySession(sess), nil
}

// UpdateStatus overwrites the status unconditionally and bumps UpdatedAt.
func (s *SessionStore) UpdateStatus(ctx context.Context, id string, status session.Status) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	sess.Status = status
	sess.UpdatedAt = bump(sess.UpdatedAt)
	return copySession(sess), nil
}

// Delete soft-deletes: writes the tombstone snapshot and removes the live
// session under one lock. Returns false when the session doesn't exist.
func (s *SessionStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false, nil
	}

	now := time.Now().UTC()
	s.deleted[id] = &session.DeletedSession{
		Session:   *copySession(sess),
		DeletedAt: now,
		ExpiresAt: now.Add(s.deletedTTL),
	}
	delete(s.sessions, id)
	return true, nil
}

// ListDeleted returns non-expired snapshots ordered by DeletedAt descending.
// Expired snapshots are filtered on read rather than swept.
func (s *SessionStore) ListDeleted(ctx context.Context) ([]session.DeletedSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	result := make([]session.DeletedSession, 0, len(s.deleted))
	for _, d := range s.deleted {
		if d.IsExpired(now) {
			continue
		}
		result = append(result, *d)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DeletedAt.After(result[j].DeletedAt)
	})
	return result, nil
}

// Size returns the number of live sessions. Used by health checks.
func (s *SessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// bump advances an UpdatedAt timestamp, keeping it non-decreasing even if
// the wall clock stepped backwards.
func bump(prev time.Time) time.Time {
	now := time.Now().UTC()
	if now.Before(prev) {
		return prev
	}
	return now
}

// copySession returns a copy to prevent external mutation of stored state.
func copySession(sess *session.Session) *session.Session {
	c := *sess
	return &c
}

// Compile-time interface verification.
var _ session.Store = (*SessionStore)(nil)
