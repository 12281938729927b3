package validation

import (
	"strings"

	"github.com/session-desk/sessiondesk/internal/domain/session"
)

// MaxIdempotencyKeyLength caps the caller-supplied Idempotency-Key header
// after trimming.
const MaxIdempotencyKeyLength = 256

// normalize trims v and returns it, or "" if nothing remains.
func normalize(v string) string {
	return strings.TrimSpace(v)
}

// Region validates a region value: a string whose trimmed form is non-empty.
// Returns the trimmed string.
func Region(v string) (string, *FieldError) {
	normalized := normalize(v)
	if normalized == "" {
		return "", NewFieldError("region", "region must be a non-empty string")
	}
	return normalized, nil
}

// Status validates a status value against the four status literals.
// No trimming or case folding: the value must match exactly.
func Status(v string) (session.Status, *FieldError) {
	if !session.IsValidStatus(v) {
		allowed := make([]string, len(session.Statuses))
		for i, s := range session.Statuses {
			allowed[i] = string(s)
		}
		return "", &FieldError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(allowed, ", "),
			Details: map[string]any{"allowed": allowed},
		}
	}
	return session.Status(v), nil
}

// SessionID validates a session id: a string whose trimmed form is non-empty.
func SessionID(v string) (string, *FieldError) {
	normalized := normalize(v)
	if normalized == "" {
		return "", NewFieldError("sessionId", "sessionId must be a non-empty string")
	}
	return normalized, nil
}

// IdempotencyKey validates a caller-supplied idempotency token. An absent
// header (empty input) is valid and returns "" meaning "no idempotency
// requested". A present header must be non-empty after trimming and at most
// MaxIdempotencyKeyLength characters.
func IdempotencyKey(v string) (string, *FieldError) {
	if v == "" {
		return "", nil
	}
	normalized := normalize(v)
	if normalized == "" {
		return "", NewFieldError("Idempotency-Key", "Idempotency-Key must be a non-empty string")
	}
	if len(normalized) > MaxIdempotencyKeyLength {
		return "", NewFieldError("Idempotency-Key", "Idempotency-Key must be at most 256 characters")
	}
	return normalized, nil
}

// OptionalRegion passes through an absent value unchanged, else delegates
// to Region. present distinguishes a missing query parameter from an
// explicitly empty one.
func OptionalRegion(v string, present bool) (string, *FieldError) {
	if !present {
		return "", nil
	}
	return Region(v)
}

// OptionalStatus passes through an absent value unchanged, else delegates
// to Status.
func OptionalStatus(v string, present bool) (session.Status, *FieldError) {
	if !present {
		return "", nil
	}
	return Status(v)
}
