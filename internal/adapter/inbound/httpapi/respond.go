package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/session-desk/sessiondesk/internal/domain/session"
	"github.com/session-desk/sessiondesk/internal/domain/validation"
)

// Error codes of the API taxonomy. Every non-2xx response carries exactly
// one of these.
const (
	codeInvalidArgument   = "invalid_argument"
	codeUnauthenticated   = "unauthenticated"
	codeNotFound          = "not_found"
	codeMethodNotAllowed  = "method_not_allowed"
	codeResourceExhausted = "resource_exhausted"
	codeInternal          = "internal"
)

// statusForCode maps an error code to its HTTP status. Pure; the single
// place the taxonomy meets HTTP.
func statusForCode(code string) int {
	switch code {
	case codeInvalidArgument:
		return http.StatusBadRequest
	case codeUnauthenticated:
		return http.StatusUnauthorized
	case codeNotFound:
		return http.StatusNotFound
	case codeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case codeResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// apiError is the wire shape of every error response.
type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

// respondJSON writes a JSON response with the given status code and data.
func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		LoggerFromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a taxonomy error with its mapped HTTP status.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, code, message string, details map[string]any) {
	s.respondJSON(w, r, statusForCode(code), errorEnvelope{Error: apiError{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// respondDomainError translates service-layer failures. Unrecognized
// errors are logged and surface as a generic internal error.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		s.respondError(w, r, codeNotFound, "session not found", nil)
	default:
		LoggerFromContext(r.Context()).Error("request failed", "error", err)
		s.respondError(w, r, codeInternal, "internal error", nil)
	}
}

// respondFieldError translates a validation failure.
func (s *Server) respondFieldError(w http.ResponseWriter, r *http.Request, fe *validation.FieldError) {
	s.respondError(w, r, codeInvalidArgument, fe.Message, fe.Details)
}

// readJSON decodes the request body into v. The body must be well-formed
// JSON; absent bodies on endpoints with optional fields should pass an
// empty object instead.
func (s *Server) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// sessionResponse is the JSON representation of a live session.
type sessionResponse struct {
	SessionID string `json:"sessionId"`
	Region    string `json:"region"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// deletedSessionResponse adds the deletion bookkeeping fields.
type deletedSessionResponse struct {
	sessionResponse
	DeletedAt string `json:"deletedAt"`
	ExpiresAt string `json:"expiresAt"`
}

func toSessionResponse(sess *session.Session) sessionResponse {
	return sessionResponse{
		SessionID: sess.ID,
		Region:    sess.Region,
		Status:    string(sess.Status),
		CreatedAt: sess.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: sess.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toDeletedSessionResponse(snap *session.DeletedSession) deletedSessionResponse {
	return deletedSessionResponse{
		sessionResponse: toSessionResponse(&snap.Session),
		DeletedAt:       snap.DeletedAt.UTC().Format(time.RFC3339),
		ExpiresAt:       snap.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
