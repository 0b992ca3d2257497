package skins

import (
	"context"
	"fmt"

	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/model"
	"github.com/okian/skins/pkg/logger"
	"github.com/shopspring/decimal"
)

// HoleEntry is one player's recorded score on a hole.
type HoleEntry struct {
	PlayerID string          `json:"player_id"`
	Gross    int             `json:"gross"`
	Stroke   decimal.Decimal `json:"stroke"`
	Net      decimal.Decimal `json:"net"`
}

// HoleCard holds every recorded score for one hole in roster order.
// A hole with fewer than two entries is not competitive.
type HoleCard struct {
	Hole        int         `json:"hole"`
	Entries     []HoleEntry `json:"entries"`
	Competitive bool        `json:"competitive"`
}

type netScorer struct {
	profile  course.Profile
	category string
	policy   course.StrokePolicy
	log      logger.Logger
}

// cards builds a card for every hole 1..N, including holes nobody scored.
func (n netScorer) cards(ctx context.Context, roster []model.Participant, sheet model.ScoreSheet) ([]HoleCard, error) {
	out := make([]HoleCard, 0, n.profile.Holes)
	for hole := 1; hole <= n.profile.Holes; hole++ {
		card := HoleCard{Hole: hole}
		for _, p := range roster {
			gross, ok := sheet.Gross(p.ID, hole)
			if !ok {
				continue
			}
			stroke, err := n.stroke(ctx, p.Player, hole)
			if err != nil {
				return nil, err
			}
			card.Entries = append(card.Entries, HoleEntry{
				PlayerID: p.ID,
				Gross:    gross,
				Stroke:   stroke,
				Net:      decimal.NewFromInt(int64(gross)).Sub(stroke),
			})
		}
		card.Competitive = len(card.Entries) >= 2
		out = append(out, card)
	}
	return out, nil
}

func (n netScorer) stroke(ctx context.Context, p model.Player, hole int) (decimal.Decimal, error) {
	s, err := n.profile.HandicapStroke(p.Handicap, hole, n.category)
	if err == nil {
		return s, nil
	}
	if n.policy == course.StrokeLenient {
		n.log.Warn(ctx, "stroke lookup failed, using zero",
			logger.String("player_id", p.ID),
			logger.Int("hole", hole),
			logger.String("category", n.category),
			logger.Error(err),
		)
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("player %s hole %d: %w", p.ID, hole, err)
}
