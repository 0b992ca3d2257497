// Package skins computes skins and payouts for a completed golf game.
package skins

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/model"
	"github.com/okian/skins/pkg/logger"
	"github.com/shopspring/decimal"
)

// Input is everything needed to settle one game.
type Input struct {
	Course    course.Profile
	Game      model.Game
	Scores    model.ScoreSheet
	CTPWinner string
}

// Result is the outcome of a skins computation.
type Result struct {
	GameID         string              `json:"game_id"`
	Holes          int                 `json:"holes"`
	Pot            int64               `json:"pot"`
	TotalSkins     int                 `json:"total_skins"`
	SkinValue      int64               `json:"skin_value"`
	SkinValueExact decimal.Decimal     `json:"skin_value_exact"`
	Undistributed  bool                `json:"undistributed"`
	Skins          []model.SkinAward   `json:"skins"`
	Payouts        []model.PayoutEntry `json:"payouts"`
	Cards          []HoleCard          `json:"cards,omitempty"`
}

// Computer computes skins for a game.
type Computer interface {
	// Compute validates the input and returns awards and payouts.
	Compute(ctx context.Context, in Input) (Result, error)
}

// Engine is a stateless Computer. It is safe for concurrent use.
type Engine struct {
	policy   course.StrokePolicy
	rounding DisplayRounding
	category string
	log      logger.Logger
}

// NewEngine creates an engine. Defaults are strict strokes, half-up display
// rounding and the default category.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		policy:   course.StrokeStrict,
		rounding: RoundHalfUp,
		category: course.DefaultCategory,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute validates the input, scores every hole, resolves skins and
// allocates the pot. On error no partial result is returned.
func (e *Engine) Compute(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	if err := in.Course.Validate(); err != nil {
		return Result{}, err
	}
	if err := validateGame(in.Course, in.Game); err != nil {
		return Result{}, err
	}
	if err := validateCTPWinner(in.Game, in.CTPWinner); err != nil {
		return Result{}, err
	}
	if err := validateScores(in.Game, in.Scores); err != nil {
		return Result{}, err
	}

	ns := netScorer{profile: in.Course, category: e.category, policy: e.policy, log: e.log}
	cards, err := ns.cards(ctx, in.Game.Participants, in.Scores)
	if err != nil {
		return Result{}, err
	}

	awards := ResolveSkins(cards, in.Game.CTPHole, in.CTPWinner)
	pot := in.Game.Pot()
	payout, err := AllocatePayouts(pot, awards, in.Game.Participants, e.rounding)
	if err != nil {
		return Result{}, err
	}

	if awards == nil {
		awards = []model.SkinAward{}
	}
	if payout.Entries == nil {
		payout.Entries = []model.PayoutEntry{}
	}
	e.log.Debug(ctx, "skins computed",
		logger.String("game_id", in.Game.ID),
		logger.Int("skins", payout.TotalSkins),
		logger.Int64("pot", pot),
	)
	return Result{
		GameID:         in.Game.ID,
		Holes:          in.Game.Holes,
		Pot:            pot,
		TotalSkins:     payout.TotalSkins,
		SkinValue:      payout.SkinValue,
		SkinValueExact: payout.SkinValueExact,
		Undistributed:  payout.Undistributed,
		Skins:          awards,
		Payouts:        payout.Entries,
		Cards:          cards,
	}, nil
}

func validateGame(p course.Profile, g model.Game) error {
	if g.Holes != p.Holes {
		return fmt.Errorf("%w: game has %d holes, course %q has %d", ErrInvalidConfiguration, g.Holes, p.Name, p.Holes)
	}
	if g.CTPHole < 1 || g.CTPHole > g.Holes {
		return fmt.Errorf("%w: ctp hole %d out of range [1,%d]", ErrInvalidConfiguration, g.CTPHole, g.Holes)
	}
	if g.EntryFee <= 0 {
		return fmt.Errorf("%w: entry fee must be positive, got %d", ErrInvalidConfiguration, g.EntryFee)
	}
	if len(g.Participants) == 0 {
		return fmt.Errorf("%w: game has no participants", ErrInvalidConfiguration)
	}
	if g.EntryFee > math.MaxInt64/int64(len(g.Participants)) {
		return fmt.Errorf("%w: entry fee %d for %d participants overflows the pot", ErrInvalidConfiguration, g.EntryFee, len(g.Participants))
	}
	seen := make(map[string]struct{}, len(g.Participants))
	for _, p := range g.Participants {
		if p.ID == "" {
			return fmt.Errorf("%w: participant without id", ErrInvalidConfiguration)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate participant %s", ErrInvalidConfiguration, p.ID)
		}
		seen[p.ID] = struct{}{}
		if h, ok := p.Handicap.Value(); ok && h.IsNegative() {
			return fmt.Errorf("%w: player %s has negative handicap %s", ErrInvalidInput, p.ID, h)
		}
	}
	return nil
}

func validateCTPWinner(g model.Game, winner string) error {
	if winner == "" {
		return nil
	}
	for _, p := range g.Participants {
		if p.ID == winner {
			return nil
		}
	}
	return fmt.Errorf("%w: ctp winner %s is not a participant", ErrInvalidConfiguration, winner)
}

func validateScores(g model.Game, sheet model.ScoreSheet) error {
	roster := make(map[string]struct{}, len(g.Participants))
	for _, p := range g.Participants {
		roster[p.ID] = struct{}{}
	}
	for _, id := range slices.Sorted(maps.Keys(sheet)) {
		if _, ok := roster[id]; !ok {
			return fmt.Errorf("%w: scores for unknown player %s", ErrInvalidInput, id)
		}
		holes := sheet[id]
		for _, hole := range slices.Sorted(maps.Keys(holes)) {
			gross := holes[hole]
			if hole < 1 || hole > g.Holes {
				return fmt.Errorf("%w: player %s hole %d out of range [1,%d]", ErrInvalidInput, id, hole, g.Holes)
			}
			if gross <= 0 {
				return fmt.Errorf("%w: player %s hole %d gross %d must be positive", ErrInvalidInput, id, hole, gross)
			}
		}
	}
	return nil
}
