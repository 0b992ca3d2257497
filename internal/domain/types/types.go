// Package types contains common types used across the application
package types

// Entry represents a money list entry
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name,omitempty"`
	Winnings int64  `json:"winnings"`
	Skins    int    `json:"skins"`
	Games    int    `json:"games"`
}
