package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/okian/skins/internal/adapters/mq/queue"
	"github.com/okian/skins/internal/adapters/repository"
	"github.com/okian/skins/pkg/metrics"
)

// HandlePostGame handles POST /games: accepts a completed game for settlement.
func (s *Server) HandlePostGame(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	ctx := r.Context()
	id := req.Game.ID
	if s.deps.SeenAndRecord(ctx, id) {
		metrics.RecordGameDuplicate()
		writeJSON(w, http.StatusOK, AckResponse{Status: "duplicate", GameID: id, Duplicate: true})
		return
	}

	if err := s.deps.Enqueue(ctx, req.settlement()); err != nil {
		if errors.Is(err, repository.ErrInvalidState) {
			metrics.RecordGameDuplicate()
			writeJSON(w, http.StatusOK, AckResponse{Status: "duplicate", GameID: id, Duplicate: true})
			return
		}
		s.deps.Unrecord(ctx, id)
		if errors.Is(err, queue.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", fmt.Errorf("%w: %w", ErrUnavailable, err))
			return
		}
		writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%w: %w", ErrBackpressure, err))
		return
	}
	metrics.RecordGameSubmitted()
	w.Header().Set("Location", "/games/"+id)
	writeJSON(w, http.StatusAccepted, AckResponse{Status: "accepted", GameID: id})
}

// HandleGetGame handles GET /games/{gameID}.
func (s *Server) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Game(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandlePreview handles POST /skins/preview: computes and returns the
// result without recording it. A missing game ID gets a random one.
func (s *Server) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if req.Game.ID == "" {
		req.Game.ID = uuid.NewString()
	}

	res, err := s.deps.Preview(r.Context(), req.settlement())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.RecordPreview()
	writeJSON(w, http.StatusOK, res)
}
