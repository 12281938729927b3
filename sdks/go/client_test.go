package sessiondesk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestServer returns an httptest server running handler and a Client
// pointed at it.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(
		WithServerAddr(srv.URL),
		WithAPIKey("test-key"),
	)
	return srv, client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func sampleSession(id string) Session {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return Session{
		SessionID: id,
		Region:    "us-east-1",
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestClient_CreateSession(t *testing.T) {
	t.Parallel()

	var gotAuth, gotIdemKey, gotPath, gotMethod string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotIdemKey = r.Header.Get("Idempotency-Key")
		gotPath = r.URL.Path
		gotMethod = r.Method

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body["region"] != "eu-west-2" {
			t.Errorf("region = %q, want eu-west-2", body["region"])
		}

		sess := sampleSession("s-1")
		sess.Region = "eu-west-2"
		writeJSON(w, http.StatusCreated, sess)
	})

	sess, err := client.CreateSession(context.Background(), "eu-west-2",
		WithIdempotencyKey("order-42"))
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/api/v1/sessions" {
		t.Errorf("request = %s %s, want POST /api/v1/sessions", gotMethod, gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
	if gotIdemKey != "order-42" {
		t.Errorf("Idempotency-Key = %q, want order-42", gotIdemKey)
	}
	if sess.SessionID != "s-1" {
		t.Errorf("SessionID = %q, want s-1", sess.SessionID)
	}
	if sess.Status != StatusPending {
		t.Errorf("Status = %q, want pending", sess.Status)
	}
}

func TestClient_GetSession_NotFound(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusNotFound, "not_found", "session not found", nil)
	})

	_, err := client.GetSession(context.Background(), "missing")
	if err == nil {
		t.Fatal("GetSession() expected error, got nil")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false, err = %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *APIError: %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Message != "session not found" {
		t.Errorf("Message = %q, want 'session not found'", apiErr.Message)
	}
}

func TestClient_ListSessions_Filter(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != StatusActive {
			t.Errorf("status query = %q, want active", q.Get("status"))
		}
		if q.Get("region") != "us-east-1" {
			t.Errorf("region query = %q, want us-east-1", q.Get("region"))
		}
		writeJSON(w, http.StatusOK, []Session{sampleSession("s-1"), sampleSession("s-2")})
	})

	sessions, err := client.ListSessions(context.Background(), ListFilter{
		Status: StatusActive,
		Region: "us-east-1",
	})
	if err != nil {
		t.Fatalf("ListSessions() error: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("len(sessions) = %d, want 2", len(sessions))
	}
}

func TestClient_ListSessions_NoFilter(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want empty", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, []Session{})
	})

	sessions, err := client.ListSessions(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("ListSessions() error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("len(sessions) = %d, want 0", len(sessions))
	}
}

func TestClient_UpdateStatus(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/v1/sessions/s-1/status" {
			t.Errorf("request = %s %s, want PATCH /api/v1/sessions/s-1/status", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		sess := sampleSession("s-1")
		sess.Status = body["status"]
		writeJSON(w, http.StatusOK, sess)
	})

	sess, err := client.UpdateStatus(context.Background(), "s-1", StatusActive)
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if sess.Status != StatusActive {
		t.Errorf("Status = %q, want active", sess.Status)
	}
}

func TestClient_CompleteAndFail(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		sess := sampleSession("s-1")
		switch r.URL.Path {
		case "/api/v1/sessions/s-1/complete":
			sess.Status = StatusCompleted
		case "/api/v1/sessions/s-1/fail":
			sess.Status = StatusFailed
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, sess)
	})

	sess, err := client.Complete(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if sess.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", sess.Status)
	}

	sess, err = client.Fail(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Fail() error: %v", err)
	}
	if sess.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", sess.Status)
	}
}

func TestClient_DeleteSession(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteSession(context.Background(), "s-1"); err != nil {
		t.Fatalf("DeleteSession() error: %v", err)
	}
}

func TestClient_ListDeletedSessions(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/deleted-sessions" {
			t.Errorf("path = %s, want /api/v1/deleted-sessions", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, []DeletedSession{{
			Session:   sampleSession("s-1"),
			DeletedAt: now,
			ExpiresAt: now.Add(24 * time.Hour),
		}})
	})

	deleted, err := client.ListDeletedSessions(context.Background())
	if err != nil {
		t.Fatalf("ListDeletedSessions() error: %v", err)
	}
	if len(deleted) != 1 {
		t.Fatalf("len(deleted) = %d, want 1", len(deleted))
	}
	if !deleted[0].ExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", deleted[0].ExpiresAt, now.Add(24*time.Hour))
	}
}

func TestClient_Stats(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("region") != "us-east-1" {
			t.Errorf("region query = %q, want us-east-1", r.URL.Query().Get("region"))
		}
		writeJSON(w, http.StatusOK, Stats{
			Total: 3,
			ByStatus: map[string]int{
				StatusPending: 1, StatusActive: 2, StatusCompleted: 0, StatusFailed: 0,
			},
		})
	})

	stats, err := client.Stats(context.Background(), "us-east-1")
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.ByStatus[StatusActive] != 2 {
		t.Errorf("ByStatus[active] = %d, want 2", stats.ByStatus[StatusActive])
	}
}

func TestClient_RateLimited(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		writeAPIError(w, http.StatusTooManyRequests, "resource_exhausted", "Too many requests",
			map[string]any{"retryAfterMs": float64(1500)})
	})

	_, err := client.CreateSession(context.Background(), "us-east-1")
	if err == nil {
		t.Fatal("CreateSession() expected error, got nil")
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("errors.Is(err, ErrRateLimited) = false, err = %v", err)
	}

	var rle *RateLimitedError
	if !errors.As(err, &rle) {
		t.Fatalf("error is not *RateLimitedError: %v", err)
	}
	if rle.RetryAfter != 1500*time.Millisecond {
		t.Errorf("RetryAfter = %v, want 1.5s", rle.RetryAfter)
	}
}

func TestClient_Unauthenticated(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "unauthenticated", "Invalid token", nil)
	})

	_, err := client.GetSession(context.Background(), "s-1")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("errors.Is(err, ErrUnauthenticated) = false, err = %v", err)
	}
}

func TestClient_NonEnvelopeError(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	})

	_, err := client.GetSession(context.Background(), "s-1")
	if err == nil {
		t.Fatal("GetSession() expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *APIError: %v", err)
	}
	if apiErr.Code != "http_502" {
		t.Errorf("Code = %q, want http_502", apiErr.Code)
	}
	if apiErr.Message != "upstream exploded" {
		t.Errorf("Message = %q, want raw body", apiErr.Message)
	}
}

func TestClient_NoAPIKeyOmitsHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("Authorization header present, want absent")
		}
		writeJSON(w, http.StatusOK, []Session{})
	}))
	defer srv.Close()

	client := NewClient(WithServerAddr(srv.URL), WithAPIKey(""))
	if _, err := client.ListSessions(context.Background(), ListFilter{}); err != nil {
		t.Fatalf("ListSessions() error: %v", err)
	}
}
