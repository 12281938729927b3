package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

// Pinger reports whether a backing store is reachable. The sqlite store
// implements it; the in-memory store has nothing to ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KeyCounter reports the number of live rate-limit keys.
type KeyCounter interface {
	Size() int
}

// HealthResponse is the JSON response from the /healthz endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
}

// HealthChecker verifies component health.
type HealthChecker struct {
	store   Pinger
	limiter KeyCounter
	metrics *Metrics
	version string
}

// NewHealthChecker creates a HealthChecker with optional components.
// Pass nil for components that aren't available.
func NewHealthChecker(store Pinger, limiter KeyCounter, metrics *Metrics, version string) *HealthChecker {
	return &HealthChecker{
		store:   store,
		limiter: limiter,
		metrics: metrics,
		version: version,
	}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check(ctx context.Context) HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := h.store.Ping(pingCtx); err != nil {
			checks["store"] = "unreachable: " + err.Error()
			healthy = false
		} else {
			checks["store"] = "ok"
		}
		cancel()
	} else {
		checks["store"] = "not configured"
	}

	if h.limiter != nil {
		keys := h.limiter.Size()
		checks["rate_limiter"] = fmt.Sprintf("ok: %d keys", keys)
		if h.metrics != nil {
			h.metrics.RateLimitKeys.Set(float64(keys))
		}
	} else {
		checks["rate_limiter"] = "not configured"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(health)
	})
}
