package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/session-desk/sessiondesk/internal/domain/session"
	"github.com/session-desk/sessiondesk/internal/domain/validation"
)

// createSessionRequest is the JSON body for session creation.
type createSessionRequest struct {
	Region string `json:"region"`
}

// updateRegionRequest is the JSON body for region updates.
type updateRegionRequest struct {
	Region string `json:"region"`
}

// updateStatusRequest is the JSON body for explicit status updates.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// decodeBody reads the JSON body into v. An empty body decodes as the
// zero value, matching clients that omit the body entirely; field
// validation then reports what is missing.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := s.readJSON(r, v); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		s.respondError(w, r, codeInvalidArgument, "Invalid JSON body", nil)
		return false
	}
	return true
}

// handleCreateSession creates a session, optionally idempotently.
// POST /api/v1/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	region, fe := validation.Region(req.Region)
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}
	idempotencyKey, fe := validation.IdempotencyKey(r.Header.Get("Idempotency-Key"))
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	sess, err := s.sessions.Create(r.Context(), region, idempotencyKey)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	s.metrics.SessionsCreatedTotal.Inc()
	s.respondJSON(w, r, http.StatusCreated, toSessionResponse(sess))
}

// handleListSessions lists sessions with optional equality filters.
// GET /api/v1/sessions?status=&region=
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status, fe := validation.OptionalStatus(q.Get("status"), q.Has("status"))
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}
	region, fe := validation.OptionalRegion(q.Get("region"), q.Has("region"))
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	sessions, err := s.sessions.List(r.Context(), session.ListFilter{Status: status, Region: region})
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	result := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, toSessionResponse(&sessions[i]))
	}
	s.respondJSON(w, r, http.StatusOK, result)
}

// handleGetSession returns a single session.
// GET /api/v1/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, fe := validation.SessionID(r.PathValue("id"))
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, toSessionResponse(sess))
}

// handleUpdateRegion moves a session to a new region.
// PATCH /api/v1/sessions/{id}
func (s *Server) handleUpdateRegion(w http.ResponseWriter, r *http.Request) {
	id, fe := validation.SessionID(r.PathValue("id"))
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	var req updateRegionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	region, fe := validation.Region(req.Region)
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	sess, err := s.sessions.UpdateRegion(r.Context(), id, region)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, toSessionResponse(sess))
}

// handleUpdateStatus sets an arbitrary status.
// PATCH /api/v1/sessions/{id}/status
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, fe := validation.SessionID(r.PathValue("id"))
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	var req updateStatusRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	status, fe := validation.Status(req.Status)
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	sess, err := s.sessions.UpdateStatus(r.Context(), id, status)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, toSessionResponse(sess))
}

// handleCompleteSession marks a session completed.
// POST /api/v1/sessions/{id}/complete
func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	id, fe := validation.SessionID(r.PathValue("id"))
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	sess, err := s.sessions.Complete(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, toSessionResponse(sess))
}

// handleFailSession marks a session failed.
// POST /api/v1/sessions/{id}/fail
func (s *Server) handleFailSession(w http.ResponseWriter, r *http.Request) {
	id, fe := validation.SessionID(r.PathValue("id"))
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	sess, err := s.sessions.Fail(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, toSessionResponse(sess))
}

// handleDeleteSession soft-deletes a session.
// DELETE /api/v1/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, fe := validation.SessionID(r.PathValue("id"))
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListDeleted returns retained soft-delete snapshots.
// GET /api/v1/deleted-sessions
func (s *Server) handleListDeleted(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.sessions.ListDeleted(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	result := make([]deletedSessionResponse, 0, len(snaps))
	for i := range snaps {
		result = append(result, toDeletedSessionResponse(&snaps[i]))
	}
	s.respondJSON(w, r, http.StatusOK, result)
}
