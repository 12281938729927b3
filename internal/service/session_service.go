// Package service contains application services.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/session-desk/sessiondesk/internal/domain/auth"
	"github.com/session-desk/sessiondesk/internal/domain/session"
)

// SessionService provides the session lifecycle operations on top of a
// session.Store. Inputs are expected to be validated by the caller; the
// service handles idempotency-key hashing, terminal transitions, and
// operational logging.
type SessionService struct {
	store  session.Store
	logger *slog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(store session.Store, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:  store,
		logger: logger,
	}
}

// Create creates a new pending session in the given region.
//
// A non-empty idempotencyKey makes the call replayable: the key is hashed
// and resolved through the store in a single transaction, so retries with
// the same key return the original session instead of creating another.
// The raw key never reaches the store or the logs.
func (s *SessionService) Create(ctx context.Context, region, idempotencyKey string) (*session.Session, error) {
	var (
		sess *session.Session
		err  error
	)
	if idempotencyKey != "" {
		sess, err = s.store.CreateIdempotent(ctx, region, auth.HashKey(idempotencyKey))
	} else {
		sess, err = s.store.Create(ctx, region)
	}
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "session created",
		"session_id", sess.ID,
		"region", sess.Region,
		"idempotent", idempotencyKey != "")
	return sess, nil
}

// Get returns a single session by ID.
// Returns session.ErrNotFound if the session does not exist.
func (s *SessionService) Get(ctx context.Context, id string) (*session.Session, error) {
	return s.store.Get(ctx, id)
}

// List returns sessions matching the filter, oldest first.
func (s *SessionService) List(ctx context.Context, filter session.ListFilter) ([]session.Session, error) {
	return s.store.List(ctx, filter)
}

// UpdateRegion moves a session to a new region.
func (s *SessionService) UpdateRegion(ctx context.Context, id, region string) (*session.Session, error) {
	sess, err := s.store.UpdateRegion(ctx, id, region)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "session region updated", "session_id", id, "region", region)
	return sess, nil
}

// UpdateStatus sets a session's status. Any status may follow any other,
// including reopening a completed or failed session.
func (s *SessionService) UpdateStatus(ctx context.Context, id string, status session.Status) (*session.Session, error) {
	sess, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "session status updated", "session_id", id, "status", status)
	return sess, nil
}

// Complete marks a session completed.
func (s *SessionService) Complete(ctx context.Context, id string) (*session.Session, error) {
	return s.UpdateStatus(ctx, id, session.StatusCompleted)
}

// Fail marks a session failed.
func (s *SessionService) Fail(ctx context.Context, id string) (*session.Session, error) {
	return s.UpdateStatus(ctx, id, session.StatusFailed)
}

// Delete soft-deletes a session: the store snapshots it for later
// inspection before removing the live record, in one transaction.
// Returns session.ErrNotFound if the session does not exist.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !deleted {
		return session.ErrNotFound
	}
	s.logger.InfoContext(ctx, "session deleted", "session_id", id)
	return nil
}

// ListDeleted returns retained soft-delete snapshots, newest deletion first.
func (s *SessionService) ListDeleted(ctx context.Context) ([]session.DeletedSession, error) {
	return s.store.ListDeleted(ctx)
}
