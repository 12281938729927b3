package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/session-desk/sessiondesk/internal/ctxkey"
	"github.com/session-desk/sessiondesk/internal/domain/auth"
)

// SubjectFromContext returns the authenticated subject id, or "" on
// unauthenticated routes.
func SubjectFromContext(ctx context.Context) string {
	if subject, ok := ctx.Value(ctxkey.SubjectKey{}).(string); ok {
		return subject
	}
	return ""
}

// authMiddleware extracts the Bearer token, verifies it, and attaches the
// subject to the request context. Fail closed: missing and invalid tokens
// both yield 401 with deliberately generic messages so the response leaks
// nothing about why verification failed.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.respondError(w, r, codeUnauthenticated, "Missing Bearer token", nil)
			return
		}

		subject, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			if !isAuthRejection(err) {
				LoggerFromContext(r.Context()).Error("token verification failed", "error", err)
			}
			s.respondError(w, r, codeUnauthenticated, "Invalid token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ctxkey.SubjectKey{}, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// isAuthRejection separates expected token rejections from verifier
// failures worth logging at error level.
func isAuthRejection(err error) bool {
	return errors.Is(err, auth.ErrUnauthenticated)
}
