package course

import "errors"

var (
	// ErrInvalidConfiguration reports a malformed course profile or game setup.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidInput reports a bad score sheet or stroke lookup.
	ErrInvalidInput = errors.New("invalid input")
)
