package model

import "github.com/shopspring/decimal"

// SkinKind distinguishes regular hole skins from the closest-to-pin bonus.
type SkinKind string

// Skin kinds.
const (
	SkinRegular SkinKind = "regular"
	SkinCTP     SkinKind = "ctp"
)

// HoleScore is the gross and net score that won a regular skin.
type HoleScore struct {
	Gross int             `json:"gross"`
	Net   decimal.Decimal `json:"net"`
}

// SkinAward is a single skin won on a hole.
type SkinAward struct {
	Hole     int        `json:"hole"`
	PlayerID string     `json:"player_id"`
	Kind     SkinKind   `json:"kind"`
	Score    *HoleScore `json:"score,omitempty"`
}

// PayoutEntry is a winner's share of the pot.
type PayoutEntry struct {
	PlayerID string `json:"player_id"`
	Skins    int    `json:"skins"`
	Amount   int64  `json:"amount"`
}
