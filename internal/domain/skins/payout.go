package skins

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/okian/skins/internal/domain/model"
	"github.com/shopspring/decimal"
)

// DisplayRounding selects how the per-skin value is rounded for display.
// It never affects the amounts paid.
type DisplayRounding string

// Display rounding modes.
const (
	RoundHalfUp   DisplayRounding = "half_up"
	RoundHalfEven DisplayRounding = "half_even"
)

// ParseDisplayRounding parses a configuration value. Empty means half_up.
func ParseDisplayRounding(s string) (DisplayRounding, error) {
	switch DisplayRounding(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoundHalfUp:
		return RoundHalfUp, nil
	case RoundHalfEven:
		return RoundHalfEven, nil
	default:
		return "", fmt.Errorf("%w: unknown display rounding %q", ErrInvalidConfiguration, s)
	}
}

func (r DisplayRounding) apply(d decimal.Decimal) decimal.Decimal {
	if r == RoundHalfEven {
		return d.RoundBank(0)
	}
	return d.Round(0)
}

// Payout is the distribution of a pot over skin winners.
type Payout struct {
	Entries        []model.PayoutEntry
	TotalSkins     int
	SkinValue      int64
	SkinValueExact decimal.Decimal
	Undistributed  bool
}

// AllocatePayouts splits pot across the winners of awards. Each winner first
// gets floor(count*pot/totalSkins); the leftover units are then handed out one
// at a time in remainder order: more skins first, then roster position, then
// player ID. Entries come back in that order and always sum to pot.
func AllocatePayouts(pot int64, awards []model.SkinAward, roster []model.Participant, rounding DisplayRounding) (Payout, error) {
	if pot < 0 {
		return Payout{}, fmt.Errorf("%w: negative pot %d", ErrInvalidConfiguration, pot)
	}
	total := int64(len(awards))
	if total == 0 {
		return Payout{Undistributed: true}, nil
	}
	if pot > math.MaxInt64/total {
		return Payout{}, fmt.Errorf("%w: pot %d too large", ErrInvalidConfiguration, pot)
	}

	counts := make(map[string]int, len(awards))
	for _, a := range awards {
		counts[a.PlayerID]++
	}
	position := make(map[string]int, len(roster))
	for i, p := range roster {
		position[p.ID] = i
	}
	pos := func(id string) int {
		if i, ok := position[id]; ok {
			return i
		}
		return len(roster)
	}

	entries := make([]model.PayoutEntry, 0, len(counts))
	for id, n := range counts {
		entries = append(entries, model.PayoutEntry{PlayerID: id, Skins: n})
	}
	slices.SortFunc(entries, func(a, b model.PayoutEntry) int {
		return cmp.Or(
			cmp.Compare(b.Skins, a.Skins),
			cmp.Compare(pos(a.PlayerID), pos(b.PlayerID)),
			strings.Compare(a.PlayerID, b.PlayerID),
		)
	})

	var paid int64
	for i := range entries {
		entries[i].Amount = int64(entries[i].Skins) * pot / total
		paid += entries[i].Amount
	}
	for i := 0; paid < pot; i++ {
		entries[i%len(entries)].Amount++
		paid++
	}

	exact := decimal.NewFromInt(pot).Div(decimal.NewFromInt(total))
	return Payout{
		Entries:        entries,
		TotalSkins:     int(total),
		SkinValue:      rounding.apply(exact).IntPart(),
		SkinValueExact: exact.Round(4),
	}, nil
}
