// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Handicap is an optional handicap index. The zero value means "no handicap".
type Handicap struct {
	value decimal.Decimal
	set   bool
}

// NoHandicap returns an absent handicap.
func NoHandicap() Handicap { return Handicap{} }

// HandicapOf returns a present handicap with the given index.
func HandicapOf(index decimal.Decimal) Handicap {
	return Handicap{value: index, set: true}
}

// HandicapFromFloat is a convenience for tests and generators.
func HandicapFromFloat(index float64) Handicap {
	return HandicapOf(decimal.NewFromFloat(index))
}

// Value returns the index and whether it is present.
func (h Handicap) Value() (decimal.Decimal, bool) { return h.value, h.set }

// IsSet reports whether the handicap is present.
func (h Handicap) IsSet() bool { return h.set }

func (h Handicap) String() string {
	if !h.set {
		return "none"
	}
	return h.value.String()
}

// MarshalJSON encodes an absent handicap as null and a present one as a number.
func (h Handicap) MarshalJSON() ([]byte, error) {
	if !h.set {
		return []byte("null"), nil
	}
	return []byte(h.value.String()), nil
}

// UnmarshalJSON accepts null, a number or a quoted number.
func (h *Handicap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*h = Handicap{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("handicap: %w", err)
	}
	*h = Handicap{value: d, set: true}
	return nil
}

// Player is a golfer as supplied by the roster collaborator.
type Player struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Handicap Handicap `json:"handicap"`
}

// Participant is a player signed up for a game.
// Wolf marks the optional side pool and has no effect on skins.
type Participant struct {
	Player
	Wolf bool `json:"wolf"`
}
