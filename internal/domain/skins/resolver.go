package skins

import (
	"slices"

	"github.com/okian/skins/internal/domain/model"
)

// ResolveSkins awards a regular skin on every hole where one player has the
// strictly lowest net score. Ties award nothing and nothing carries over.
// A closest-to-pin award, when ctpWinner is set, is appended after all holes.
func ResolveSkins(cards []HoleCard, ctpHole int, ctpWinner string) []model.SkinAward {
	var awards []model.SkinAward
	for _, card := range cards {
		if !card.Competitive || len(card.Entries) < 2 {
			continue
		}
		entries := slices.Clone(card.Entries)
		slices.SortStableFunc(entries, func(a, b HoleEntry) int {
			return a.Net.Cmp(b.Net)
		})
		best, next := entries[0], entries[1]
		if !best.Net.LessThan(next.Net) {
			continue
		}
		awards = append(awards, model.SkinAward{
			Hole:     card.Hole,
			PlayerID: best.PlayerID,
			Kind:     model.SkinRegular,
			Score:    &model.HoleScore{Gross: best.Gross, Net: best.Net},
		})
	}
	if ctpWinner != "" {
		awards = append(awards, model.SkinAward{
			Hole:     ctpHole,
			PlayerID: ctpWinner,
			Kind:     model.SkinCTP,
		})
	}
	return awards
}
