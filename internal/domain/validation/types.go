// Package validation provides pure field validators for untrusted input.
// Validators never panic and report failures as returned values so callers
// can map them to transport-level error codes uniformly.
package validation

import "fmt"

// FieldError represents a validation failure for a single input field.
// The Message field contains a safe message for the client (no internal
// details); Field is the machine-readable field name.
type FieldError struct {
	// Field is the name of the failing input field.
	Field string

	// Message is a safe, client-facing error message.
	Message string

	// Details optionally carries machine-readable context,
	// e.g. the allowed status literals.
	Details map[string]any
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewFieldError creates a FieldError with the given field and message.
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}
