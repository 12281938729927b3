// Package redislimit provides a Redis-backed rate limiter for deployments
// running more than one instance, where the in-memory limiter's
// per-process windows would multiply the effective limits.
package redislimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/session-desk/sessiondesk/internal/domain/ratelimit"
)

const defaultPrefix = "sessiondesk:ratelimit"

// RateLimiter implements ratelimit.Limiter with fixed windows stored in
// Redis. Each key's window starts on its first request: INCR creates the
// counter and the window opener arms a PEXPIRE that bounds it. A counter
// found without an expiry (a crash between the two commands) is re-armed
// on the next hit.
type RateLimiter struct {
	rdb    *redis.Client
	prefix string
}

// Option configures a RateLimiter.
type Option func(*RateLimiter)

// WithPrefix overrides the key namespace.
func WithPrefix(prefix string) Option {
	return func(r *RateLimiter) {
		r.prefix = strings.Trim(prefix, ":")
	}
}

// NewRateLimiter creates a limiter on top of an existing Redis client.
func NewRateLimiter(rdb *redis.Client, opts ...Option) *RateLimiter {
	r := &RateLimiter{
		rdb:    rdb,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Allow counts the request against the key's current window.
func (r *RateLimiter) Allow(ctx context.Context, key string, cfg ratelimit.Config) (ratelimit.Result, error) {
	redisKey := r.prefix + ":" + key

	count, err := r.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return ratelimit.Result{}, fmt.Errorf("rate limit incr: %w", err)
	}

	if count == 1 {
		if err := r.rdb.PExpire(ctx, redisKey, cfg.Window).Err(); err != nil {
			return ratelimit.Result{}, fmt.Errorf("rate limit arm expiry: %w", err)
		}
	} else if err := r.restoreWindow(ctx, redisKey, cfg.Window); err != nil {
		return ratelimit.Result{}, err
	}

	if count <= int64(cfg.Max) {
		return ratelimit.Result{Allowed: true}, nil
	}

	ttl, err := r.rdb.PTTL(ctx, redisKey).Result()
	if err != nil {
		return ratelimit.Result{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl < 0 {
		ttl = cfg.Window
	}
	return ratelimit.Result{Allowed: false, RetryAfter: ttl}, nil
}

// restoreWindow re-reads the TTL and only re-arms it when the key somehow
// lost its expiry, keeping the window fixed rather than sliding.
func (r *RateLimiter) restoreWindow(ctx context.Context, key string, window time.Duration) error {
	ttl, err := r.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl == -1 {
		if err := r.rdb.PExpire(ctx, key, window).Err(); err != nil {
			return fmt.Errorf("rate limit re-arm expiry: %w", err)
		}
	}
	return nil
}

// Compile-time interface verification.
var _ ratelimit.Limiter = (*RateLimiter)(nil)
