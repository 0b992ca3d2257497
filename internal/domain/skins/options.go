package skins

import (
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithStrokePolicy sets how stroke lookup failures are handled.
func WithStrokePolicy(p course.StrokePolicy) Option {
	return func(e *Engine) {
		if p != "" {
			e.policy = p
		}
	}
}

// WithDisplayRounding sets the display rounding of the skin value.
func WithDisplayRounding(r DisplayRounding) Option {
	return func(e *Engine) {
		if r != "" {
			e.rounding = r
		}
	}
}

// WithCategory sets the rank category used for stroke allocation.
func WithCategory(category string) Option {
	return func(e *Engine) {
		if category != "" {
			e.category = category
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
