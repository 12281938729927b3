package httpapi

import (
	"net/http"
	"strconv"

	"github.com/session-desk/sessiondesk/internal/domain/ratelimit"
)

// limited wraps a write-operation handler with the fixed-window rate
// limit for op. Runs after auth, so the key combines the authenticated
// subject with the client IP. Reads are unmetered and skip this wrapper.
// A limiter failure denies the request rather than waving it through.
func (s *Server) limited(op ratelimit.Operation, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, ok := s.rates[op]
		if !ok || s.limiter == nil {
			next(w, r)
			return
		}

		ctx := r.Context()
		key := string(op) + ":" + ratelimit.Key(SubjectFromContext(ctx), ClientIPFromContext(ctx))

		result, err := s.limiter.Allow(ctx, key, cfg)
		if err != nil {
			LoggerFromContext(ctx).Error("rate limiter failure", "operation", op, "error", err)
			s.respondError(w, r, codeInternal, "internal error", nil)
			return
		}

		if !result.Allowed {
			s.metrics.RateLimitedTotal.WithLabelValues(string(op)).Inc()
			retryAfterMs := result.RetryAfter.Milliseconds()
			if retryAfterMs < 0 {
				retryAfterMs = 0
			}
			// Retry-After is whole seconds, rounded up so clients never
			// retry inside the same window.
			retryAfterSec := (retryAfterMs + 999) / 1000
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
			s.respondError(w, r, codeResourceExhausted, "Too many requests", map[string]any{
				"retryAfterMs": retryAfterMs,
			})
			return
		}

		next(w, r)
	}
}
