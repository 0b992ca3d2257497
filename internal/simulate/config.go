// Package simulate generates random skins games, submits them to a running
// server and verifies the settled results.
package simulate

import (
	"time"

	"github.com/okian/skins/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Games         int           // Number of games to generate
	Players       int           // Size of the player pool games draw from
	MaxPerGame    int           // Upper bound of participants per game
	Workers       int           // Number of concurrent submitters
	Timeout       time.Duration // HTTP request timeout
	SettleTimeout time.Duration // How long to wait for every game to settle
	Seed          uint64        // Generator seed, equal seeds give equal games
	Output        string        // Optional file the generated games are saved to
	Input         string        // Optional file of saved games to replay instead of generating
	Verbose       bool          // Log every submission
}

// Game is one generated game in the wire shape of POST /games.
type Game struct {
	Game      model.Game       `json:"game"`
	Scores    model.ScoreSheet `json:"scores"`
	CTPWinner string           `json:"ctp_winner,omitempty"`
}

// Settlement returns the game as the engine sees it.
func (g Game) Settlement() model.Settlement {
	return model.Settlement{Game: g.Game, Scores: g.Scores, CTPWinner: g.CTPWinner}
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Accepted   int
	Duplicate  int
	Rejected   int
	Settled    int
	Failed     int
	Verified   int
	Pot        int64 // sum of distributed pots
	StartTime  time.Time
	Duration   time.Duration
	Mismatches []string
}
