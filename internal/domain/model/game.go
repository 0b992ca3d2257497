package model

import "time"

// Game is a completed game snapshot.
type Game struct {
	ID           string        `json:"id"`
	Holes        int           `json:"holes"`
	CTPHole      int           `json:"ctp_hole"`
	EntryFee     int64         `json:"entry_fee"`
	Participants []Participant `json:"participants"`
}

// Pot is entry fee times participant count. It does not guard against
// overflow; the skins engine rejects such games before calling it.
func (g Game) Pot() int64 {
	return g.EntryFee * int64(len(g.Participants))
}

// ScoreSheet maps player ID -> hole number -> gross strokes.
// A missing hole means the score was not recorded.
type ScoreSheet map[string]map[int]int

// Gross returns the recorded gross score for a player on a hole.
func (s ScoreSheet) Gross(playerID string, hole int) (int, bool) {
	holes, ok := s[playerID]
	if !ok {
		return 0, false
	}
	g, ok := holes[hole]
	return g, ok
}

// Settlement is a submitted game awaiting skins computation.
type Settlement struct {
	Game        Game       `json:"game"`
	Scores      ScoreSheet `json:"scores"`
	CTPWinner   string     `json:"ctp_winner,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
}
