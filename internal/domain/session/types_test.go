package session

import (
	"testing"
	"time"
)

func TestIsValidStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"pending", true},
		{"active", true},
		{"completed", true},
		{"failed", true},
		{"", false},
		{"archived", false},
		{"Pending", false},
		{"pending ", false},
	}

	for _, tt := range tests {
		if got := IsValidStatus(tt.input); got != tt.want {
			t.Errorf("IsValidStatus(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDeletedSessionIsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	d := &DeletedSession{ExpiresAt: now.Add(time.Hour)}

	if d.IsExpired(now) {
		t.Error("IsExpired() = true before expiry")
	}
	if !d.IsExpired(now.Add(time.Hour)) {
		t.Error("IsExpired() = false at expiry instant")
	}
	if !d.IsExpired(now.Add(2 * time.Hour)) {
		t.Error("IsExpired() = false after expiry")
	}
}
