package ratelimit

import "context"

// Limiter is the interface for rate limiting checks.
//
// Implementations use a fixed-window counter per key: the first request in a
// window (or any request after the window lapsed) resets the counter and is
// allowed; later requests increment it and are denied once the count exceeds
// Config.Max, with RetryAfter indicating the remaining window.
//
// The interface is storage-agnostic. The in-memory implementation is
// per-process only — its limits are not shared across instances, which is an
// accepted property of the deployment, not a bug. The Redis implementation
// provides cross-instance counting for deployments that need it.
type Limiter interface {
	// Allow atomically counts a request against key under cfg and reports
	// whether it may proceed. The check and the increment are a single
	// operation; callers must not read-then-write around it.
	Allow(ctx context.Context, key string, cfg Config) (Result, error)
}
