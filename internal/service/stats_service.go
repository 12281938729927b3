package service

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/session-desk/sessiondesk/internal/domain/session"
)

// Default time a computed snapshot stays fresh.
const DefaultStatsCacheTTL = 5 * time.Second

// Stats holds aggregate session counts at a point in time.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

// StatsService computes aggregate session counts. Snapshots are cached
// for a short TTL keyed by query hash, so dashboard polling does not
// turn into a full store scan per request.
type StatsService struct {
	store    session.Store
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[uint64]statsEntry
}

type statsEntry struct {
	stats      Stats
	computedAt time.Time
}

// StatsOption configures a StatsService.
type StatsOption func(*StatsService)

// WithStatsCacheTTL overrides the snapshot freshness window.
// A non-positive TTL disables caching.
func WithStatsCacheTTL(d time.Duration) StatsOption {
	return func(s *StatsService) { s.cacheTTL = d }
}

// NewStatsService creates a new StatsService.
func NewStatsService(store session.Store, opts ...StatsOption) *StatsService {
	s := &StatsService{
		store:    store,
		cacheTTL: DefaultStatsCacheTTL,
		cache:    make(map[uint64]statsEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns session counts, optionally restricted to one region.
// Counts come from the live store only; soft-deleted sessions are excluded.
func (s *StatsService) Snapshot(ctx context.Context, region string) (Stats, error) {
	key := computeStatsKey(region)
	now := time.Now()

	if s.cacheTTL > 0 {
		s.mu.Lock()
		entry, ok := s.cache[key]
		s.mu.Unlock()
		if ok && now.Sub(entry.computedAt) < s.cacheTTL {
			return entry.stats, nil
		}
	}

	sessions, err := s.store.List(ctx, session.ListFilter{Region: region})
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Total:    len(sessions),
		ByStatus: make(map[string]int, len(session.Statuses)),
	}
	for _, status := range session.Statuses {
		stats.ByStatus[string(status)] = 0
	}
	for _, sess := range sessions {
		stats.ByStatus[string(sess.Status)]++
	}

	if s.cacheTTL > 0 {
		s.mu.Lock()
		s.cache[key] = statsEntry{stats: stats, computedAt: now}
		s.mu.Unlock()
	}
	return stats, nil
}

// Invalidate drops all cached snapshots. Called after writes when stale
// counts are unacceptable; normal operation just waits out the TTL.
func (s *StatsService) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[uint64]statsEntry)
	s.mu.Unlock()
}

// computeStatsKey hashes the query parameters into a cache key.
func computeStatsKey(region string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(region)
	return h.Sum64()
}
