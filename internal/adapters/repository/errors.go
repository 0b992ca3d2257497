package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidLimit  = errors.New("invalid money list limit")
	ErrInvalidState  = errors.New("invalid settlement state")
	ErrInvalidCredit = errors.New("invalid credit")
)
