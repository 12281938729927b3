package sqlite

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Default interval between expiry sweeps.
const DefaultSweepInterval = 1 * time.Minute

// Sweeper periodically removes expired soft-delete snapshots and
// idempotency records. SQLite has no TTL indexes, so expiry is enforced
// by this background goroutine; reads additionally filter expired rows
// so a lagging sweep never surfaces stale data.
type Sweeper struct {
	store    *Store
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once // Prevent double-close panic on Stop()
}

// NewSweeper creates a sweeper for the store with the given interval.
// A non-positive interval falls back to DefaultSweepInterval.
func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start starts the background sweep goroutine.
// Call Stop() to stop it gracefully.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// sweep deletes all rows past their expires_at.
func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC().Format(timeFormat)

	snapshots, err := s.store.db.ExecContext(ctx,
		`DELETE FROM deleted_sessions WHERE expires_at <= ?`, now)
	if err != nil {
		slog.Warn("sweep deleted sessions failed", "error", err)
		return
	}
	records, err := s.store.db.ExecContext(ctx,
		`DELETE FROM idempotency_records WHERE expires_at <= ?`, now)
	if err != nil {
		slog.Warn("sweep idempotency records failed", "error", err)
		return
	}

	cleaned := rowsAffected(snapshots) + rowsAffected(records)
	if cleaned > 0 {
		slog.Debug("swept expired records", "count", cleaned)
	}
}

// Stop stops the background sweep goroutine and waits for it to exit.
// Safe to call multiple times.
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

func rowsAffected(res interface{ RowsAffected() (int64, error) }) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
