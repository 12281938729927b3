// Package auth contains the domain types and logic for authentication.
package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned for any credential failure: missing token,
// malformed token, or verifier rejection. The message is deliberately generic
// so verifier internals never leak to clients.
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier checks a bearer credential against an identity provider and
// resolves the subject it belongs to.
//
// Implementations: OIDC (external identity provider, prod) and a static
// config-seeded key ring (dev/small deployments). Any verification failure
// must be reported as ErrUnauthenticated (possibly wrapped); callers treat
// every error from Verify as an authentication failure regardless.
type Verifier interface {
	// Verify validates the raw bearer token and returns the subject id it
	// authenticates. The subject is only used within the request lifetime
	// (rate-limit keying, log correlation) and is never persisted.
	Verify(ctx context.Context, token string) (subject string, err error)
}
