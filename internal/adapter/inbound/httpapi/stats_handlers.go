package httpapi

import (
	"net/http"

	"github.com/session-desk/sessiondesk/internal/domain/validation"
)

// handleStats returns aggregate session counts.
// GET /api/v1/stats?region=
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	region, fe := validation.OptionalRegion(q.Get("region"), q.Has("region"))
	if fe != nil {
		s.respondFieldError(w, r, fe)
		return
	}

	stats, err := s.stats.Snapshot(r.Context(), region)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, stats)
}
