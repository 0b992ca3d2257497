// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/skins/internal/adapters/repository"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/dedupe"
	"github.com/okian/skins/internal/domain/model"
	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/internal/domain/types"
)

const (
	defaultMoneyListLimit = 10
	defaultMaxLimit       = 100
	maxBodyBytes          = 1 << 20
)

// Entry mirrors the read shape returned by money list queries.
type Entry = types.Entry

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue records a game as pending and queues it for settlement.
	Enqueue(ctx context.Context, s model.Settlement) error
	// Preview computes skins for a game without recording anything.
	Preview(ctx context.Context, s model.Settlement) (skins.Result, error)
	// Game returns the settlement record of a submitted game.
	Game(ctx context.Context, gameID string) (repository.GameRecord, error)

	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, playerID string) (Entry, error)

	Course() course.Profile
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	stats    StatsProvider
	maxLimit int
}

// NewServer creates a new API server. maxLimit bounds GET /moneylist.
func NewServer(deps Dependencies, stats StatsProvider, maxLimit int) *Server {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &Server{deps: deps, stats: stats, maxLimit: maxLimit}
}

// Routes attaches all business routes to r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", HandleHealth)
	r.Get("/stats", s.HandleStats)
	r.Get("/course", s.HandleGetCourse)
	r.Post("/skins/preview", s.HandlePreview)
	r.Post("/games", s.HandlePostGame)
	r.Get("/games/{gameID}", s.HandleGetGame)
	r.Get("/moneylist", s.HandleGetMoneyList)
	r.Get("/moneylist/{playerID}", s.HandleGetStanding)
}

// NewRouter returns a chi router with the standard middleware stack and
// every business route registered.
func NewRouter(s *Server) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	s.Routes(r)
	return r
}

// GameRequest is the body of POST /games and POST /skins/preview.
type GameRequest struct {
	Game      model.Game       `json:"game"`
	Scores    model.ScoreSheet `json:"scores"`
	CTPWinner string           `json:"ctp_winner,omitempty"`
}

func (g GameRequest) validate(requireID bool) error {
	switch {
	case requireID && strings.TrimSpace(g.Game.ID) == "":
		return errors.New("missing game.id")
	case len(g.Game.Participants) == 0:
		return errors.New("missing game.participants")
	case g.Scores == nil:
		return errors.New("missing scores")
	}
	return nil
}

func (g GameRequest) settlement() model.Settlement {
	return model.Settlement{Game: g.Game, Scores: g.Scores, CTPWinner: g.CTPWinner}
}

// AckResponse acknowledges a game submission.
type AckResponse struct {
	Status    string `json:"status"`
	GameID    string `json:"game_id"`
	Duplicate bool   `json:"duplicate"`
}

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg})
}

// writeEngineError maps skins errors to 400 and anything else to 500.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, skins.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, "invalid_configuration", err)
	case errors.Is(err, skins.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
