package skins

import "github.com/okian/skins/internal/domain/course"

var (
	// ErrInvalidConfiguration reports a malformed course, game or pot.
	ErrInvalidConfiguration = course.ErrInvalidConfiguration
	// ErrInvalidInput reports a bad score sheet or a strict stroke lookup failure.
	ErrInvalidInput = course.ErrInvalidInput
)
