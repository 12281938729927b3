// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/session-desk/sessiondesk/internal/domain/ratelimit"
)

// bucket tracks request counts for a single key within one window.
type bucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter implements ratelimit.Limiter with fixed-window counters in a
// mutex-protected map. Thread-safe for concurrent access.
//
// Buckets are never actively swept: a key's entry is reused (and its window
// reset) on the next request after expiry, so memory is bounded by the number
// of distinct active clients, not by request volume. Limits are per process;
// instances do not share counters.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRateLimiter creates a new in-memory fixed-window rate limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*bucket)}
}

// Allow counts one request against key and reports whether it may proceed.
// The first request for a key, or any request after the window lapsed,
// resets the window and is allowed.
func (r *RateLimiter) Allow(ctx context.Context, key string, cfg ratelimit.Config) (ratelimit.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	b, ok := r.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		r.buckets[key] = &bucket{count: 1, resetAt: now.Add(cfg.Window)}
		return ratelimit.Result{Allowed: true}, nil
	}

	b.count++
	if b.count > cfg.Max {
		retryAfter := b.resetAt.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return ratelimit.Result{Allowed: false, RetryAfter: retryAfter}, nil
	}

	return ratelimit.Result{Allowed: true}, nil
}

// Size returns the current number of tracked keys.
// Useful for health checks and monitoring memory usage.
func (r *RateLimiter) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

// Compile-time interface verification.
var _ ratelimit.Limiter = (*RateLimiter)(nil)
