package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/session-desk/sessiondesk/internal/domain/auth"
)

// RegisterCustomValidators registers sessiondesk-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// key_hash: validates "sha256:<hex>", bare 64-char hex, or Argon2id PHC
	if err := v.RegisterValidation("key_hash", validateKeyHash); err != nil {
		return fmt.Errorf("failed to register key_hash validator: %w", err)
	}
	return nil
}

// validateKeyHash validates a stored API key hash field.
func validateKeyHash(fl validator.FieldLevel) bool {
	return auth.DetectHashType(fl.Field().String()) != "unknown"
}

// Validate validates the Config using struct tags and custom cross-field
// rules. Returns an error with actionable messages on failure.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateAuthMode(); err != nil {
		return err
	}

	return c.validateSubjectUniqueness()
}

// validateAuthMode ensures the selected auth mode has the fields it needs.
func (c *Config) validateAuthMode() error {
	switch c.Auth.Mode {
	case "static":
		if len(c.Auth.Keys) == 0 {
			return errors.New("auth: static mode requires at least one key (or enable dev_mode)")
		}
	case "oidc":
		if c.Auth.OIDC.Issuer == "" {
			return errors.New("auth: oidc mode requires oidc.issuer")
		}
		if c.Auth.OIDC.Audience == "" {
			return errors.New("auth: oidc mode requires oidc.audience")
		}
	}
	return nil
}

// validateSubjectUniqueness ensures no two static keys share a subject.
// Duplicate subjects would make rate limit buckets and logs ambiguous.
func (c *Config) validateSubjectUniqueness() error {
	seen := make(map[string]struct{}, len(c.Auth.Keys))
	for i, key := range c.Auth.Keys {
		if _, dup := seen[key.Subject]; dup {
			return fmt.Errorf("auth.keys[%d]: duplicate subject: %s", i, key.Subject)
		}
		seen[key.Subject] = struct{}{}
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "key_hash":
		return fmt.Sprintf("%s must be 'sha256:<hex>', a 64-char hex digest, or an argon2id hash", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
