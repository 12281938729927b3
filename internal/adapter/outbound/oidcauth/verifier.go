// Package oidcauth verifies bearer tokens against an OIDC provider
// using issuer discovery.
package oidcauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/session-desk/sessiondesk/internal/domain/auth"
)

// Verifier implements auth.Verifier by validating bearer tokens as OIDC
// ID tokens. Token signature, issuer, audience and expiry checks are
// delegated to the provider's published keys.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	logger   *slog.Logger
}

// New initializes a Verifier via OIDC discovery against the issuer URL.
// audience is matched against the token's aud claim.
func New(ctx context.Context, issuer, audience string, logger *slog.Logger) (*Verifier, error) {
	if issuer == "" || audience == "" {
		return nil, errors.New("oidc issuer and audience are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("init oidc provider: %w", err)
	}

	return &Verifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
		logger:   logger,
	}, nil
}

// Verify validates the raw token and returns its subject. All failure
// detail stays in the log; the caller only learns the token was rejected.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		v.logger.Debug("oidc token rejected", "error", err)
		return "", auth.ErrUnauthenticated
	}
	if idToken.Subject == "" {
		v.logger.Debug("oidc token missing sub claim", "issuer", idToken.Issuer)
		return "", auth.ErrUnauthenticated
	}
	return idToken.Subject, nil
}

// Compile-time interface verification.
var _ auth.Verifier = (*Verifier)(nil)
