// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

// LoggerKey is the context key type for the enriched logger.
// Used by HTTP middleware to store and retrieve the logger with the request_id field.
type LoggerKey struct{}

// RequestIDKey is the context key type for the request id echoed in x-request-id.
type RequestIDKey struct{}

// SubjectKey is the context key type for the authenticated subject id.
// Set by the auth middleware, read by the rate limiter and request logging.
type SubjectKey struct{}

// ClientIPKey is the context key type for the client IP resolved by the
// real-ip middleware.
type ClientIPKey struct{}
