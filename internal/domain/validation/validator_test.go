package validation

import (
	"strings"
	"testing"

	"github.com/session-desk/sessiondesk/internal/domain/session"
)

func TestRegion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "eu-central", "eu-central", false},
		{"trims whitespace", "  us-east  ", "us-east", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Region(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Region(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Region(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if err != nil && err.Field != "region" {
				t.Errorf("Field = %q, want %q", err.Field, "region")
			}
		})
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	got, err := Status("active")
	if err != nil {
		t.Fatalf("Status(active) error = %v", err)
	}
	if got != session.StatusActive {
		t.Errorf("Status(active) = %q, want %q", got, session.StatusActive)
	}

	_, err = Status("bad")
	if err == nil {
		t.Fatal("Status(bad) error = nil, want error")
	}
	if err.Field != "status" {
		t.Errorf("Field = %q, want %q", err.Field, "status")
	}
	allowed, ok := err.Details["allowed"].([]string)
	if !ok || len(allowed) != 4 {
		t.Errorf("Details[allowed] = %v, want the 4 status literals", err.Details["allowed"])
	}

	// Exact match only: no trimming, no case folding.
	if _, err := Status(" active"); err == nil {
		t.Error("Status(\" active\") error = nil, want error")
	}
	if _, err := Status("Active"); err == nil {
		t.Error("Status(\"Active\") error = nil, want error")
	}
}

func TestSessionID(t *testing.T) {
	t.Parallel()

	got, err := SessionID(" abc-123 ")
	if err != nil {
		t.Fatalf("SessionID() error = %v", err)
	}
	if got != "abc-123" {
		t.Errorf("SessionID() = %q, want %q", got, "abc-123")
	}

	if _, err := SessionID("  "); err == nil {
		t.Error("SessionID(whitespace) error = nil, want error")
	}
}

func TestIdempotencyKey(t *testing.T) {
	t.Parallel()

	// Absent header is valid and means "no idempotency requested".
	got, err := IdempotencyKey("")
	if err != nil {
		t.Fatalf("IdempotencyKey(\"\") error = %v", err)
	}
	if got != "" {
		t.Errorf("IdempotencyKey(\"\") = %q, want empty", got)
	}

	got, err = IdempotencyKey("  retry-token-1  ")
	if err != nil {
		t.Fatalf("IdempotencyKey() error = %v", err)
	}
	if got != "retry-token-1" {
		t.Errorf("IdempotencyKey() = %q, want %q", got, "retry-token-1")
	}

	// Present but blank is rejected.
	if _, err := IdempotencyKey("   "); err == nil {
		t.Error("IdempotencyKey(blank) error = nil, want error")
	}

	// Length limit applies after trimming.
	if _, err := IdempotencyKey(strings.Repeat("k", 257)); err == nil {
		t.Error("IdempotencyKey(257 chars) error = nil, want error")
	}
	if _, err := IdempotencyKey(strings.Repeat("k", 256)); err != nil {
		t.Errorf("IdempotencyKey(256 chars) error = %v, want nil", err)
	}
}

func TestOptionalVariants(t *testing.T) {
	t.Parallel()

	if got, err := OptionalRegion("", false); err != nil || got != "" {
		t.Errorf("OptionalRegion(absent) = (%q, %v), want (\"\", nil)", got, err)
	}
	if _, err := OptionalRegion("", true); err == nil {
		t.Error("OptionalRegion(present empty) error = nil, want error")
	}
	if got, err := OptionalStatus("", false); err != nil || got != "" {
		t.Errorf("OptionalStatus(absent) = (%q, %v), want (\"\", nil)", got, err)
	}
	if got, err := OptionalStatus("failed", true); err != nil || got != session.StatusFailed {
		t.Errorf("OptionalStatus(failed) = (%q, %v), want (failed, nil)", got, err)
	}
}
