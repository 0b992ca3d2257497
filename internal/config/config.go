// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/pkg/logger"
)

// Built-in course presets selectable with course_preset.
const (
	Preset18 = "default18"
	Preset9  = "default9"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory settlement queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of settlement workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the number of remembered game IDs and finished game
	// records.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxMoneyListLimit caps GET /moneylist?limit.
	MaxMoneyListLimit int `koanf:"max_money_list_limit"`

	// StrokePolicy is strict or lenient.
	StrokePolicy string `koanf:"stroke_policy"`

	// DisplayRounding is half_up or half_even.
	DisplayRounding string `koanf:"display_rounding"`

	// Category names the hole-rank column used for strokes.
	Category string `koanf:"category"`

	// CoursePreset picks a built-in course when Course is not set.
	CoursePreset string `koanf:"course_preset"`

	// Course overrides the preset with a full course profile.
	Course *course.Profile `koanf:"course"`

	// ShutdownTimeout bounds the graceful drain on exit.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         logger.FormatText,
		Addr:              ":9080",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        100_000,
		MaxMoneyListLimit: 100,
		StrokePolicy:      string(course.StrokeStrict),
		DisplayRounding:   string(skins.RoundHalfUp),
		Category:          course.DefaultCategory,
		CoursePreset:      Preset18,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Profile returns the configured course, falling back to the preset.
func (c *Config) Profile() (course.Profile, error) {
	if c.Course != nil {
		return c.Course.Clone(), nil
	}
	switch strings.ToLower(c.CoursePreset) {
	case "", Preset18:
		return course.Default18(), nil
	case Preset9:
		return course.Default9(), nil
	default:
		return course.Profile{}, fmt.Errorf("%w: unknown course preset %q", ErrInvalidConfig, c.CoursePreset)
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxMoneyListLimit < 1:
		return fmt.Errorf("%w: max_money_list_limit must be positive, got %d", ErrInvalidConfig, c.MaxMoneyListLimit)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	if f := strings.ToLower(c.LogFormat); f != logger.FormatText && f != logger.FormatJSON {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := course.ParseStrokePolicy(c.StrokePolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := skins.ParseDisplayRounding(c.DisplayRounding); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	p, err := c.Profile()
	if err != nil {
		return err
	}
	if err := p.ValidateStandard(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := p.Rank(1, c.Category); err != nil {
		return fmt.Errorf("%w: course %q: %w", ErrInvalidConfig, p.Name, err)
	}
	return nil
}

// EngineOptions translates the scoring settings into engine options.
// Call Validate first; unparseable values fall back to engine defaults.
func (c *Config) EngineOptions() []skins.Option {
	var opts []skins.Option
	if p, err := course.ParseStrokePolicy(c.StrokePolicy); err == nil {
		opts = append(opts, skins.WithStrokePolicy(p))
	}
	if r, err := skins.ParseDisplayRounding(c.DisplayRounding); err == nil {
		opts = append(opts, skins.WithDisplayRounding(r))
	}
	if c.Category != "" {
		opts = append(opts, skins.WithCategory(c.Category))
	}
	return opts
}
