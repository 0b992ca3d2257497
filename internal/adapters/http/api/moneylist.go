package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/skins/internal/adapters/repository"
)

// HandleGetMoneyList handles GET /moneylist?limit=N.
func (s *Server) HandleGetMoneyList(w http.ResponseWriter, r *http.Request) {
	n := defaultMoneyListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		n = v
	}
	if n > s.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: limit %d exceeds %d", ErrBadRequest, n, s.maxLimit))
		return
	}
	entries, err := s.deps.TopN(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetStanding handles GET /moneylist/{playerID}.
func (s *Server) HandleGetStanding(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.Rank(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleGetCourse handles GET /course.
func (s *Server) HandleGetCourse(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Course())
}
