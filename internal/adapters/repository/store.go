// Package repository holds the season money list and settled game results.
package repository

import (
	"context"
	"time"

	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/internal/domain/types"
)

// Credit is one participant's outcome from a settled game.
type Credit struct {
	PlayerID string
	Name     string
	Amount   int64
	Skins    int
}

// MoneyList ranks players by total winnings.
type MoneyList interface {
	// Credit applies one settled game's credits atomically. Every credited
	// player's game count goes up by one, winners or not.
	Credit(ctx context.Context, credits ...Credit) error

	// Rank returns the standing for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by winnings desc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of players on the list.
	Count(ctx context.Context) int

	// Total returns the sum of all winnings.
	Total(ctx context.Context) int64
}

// Status is the settlement state of a submitted game.
type Status string

// Settlement states.
const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
	StatusFailed  Status = "failed"
)

// GameRecord is what the results store knows about a submitted game.
type GameRecord struct {
	GameID      string        `json:"game_id"`
	Status      Status        `json:"status"`
	Result      *skins.Result `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	SettledAt   *time.Time    `json:"settled_at,omitempty"`
}

// Results stores the settlement state of every submitted game.
type Results interface {
	MarkPending(ctx context.Context, gameID string) error
	MarkSettled(ctx context.Context, gameID string, res skins.Result) error
	MarkFailed(ctx context.Context, gameID string, cause error) error
	// Forget drops a pending record, used when the submission is rolled back.
	Forget(ctx context.Context, gameID string)
	Get(ctx context.Context, gameID string) (GameRecord, error)
	Count(ctx context.Context) int
}
