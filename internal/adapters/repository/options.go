package repository

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithClock sets the clock driving the metrics updater.
func WithClock(c clockwork.Clock) Option {
	return func(s *TreapStore) {
		if c != nil {
			s.clock = c
		}
	}
}

// ResultsOption applies a configuration option to the ResultsStore.
type ResultsOption func(*ResultsStore)

// WithResultsClock sets the clock used to timestamp records.
func WithResultsClock(c clockwork.Clock) ResultsOption {
	return func(s *ResultsStore) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMaxRecords bounds the number of finished records kept. Zero or
// negative keeps every record.
func WithMaxRecords(n int) ResultsOption {
	return func(s *ResultsStore) {
		s.maxRecords = n
	}
}
