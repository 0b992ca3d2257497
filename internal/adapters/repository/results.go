package repository

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/pkg/metrics"
)

// ResultsStore is an in-memory Results implementation. With a record limit
// the oldest finished records are evicted first; pending records are never
// evicted.
type ResultsStore struct {
	mu         sync.RWMutex
	records    map[string]GameRecord
	finished   *lru.Cache[string, struct{}]
	maxRecords int
	clock      clockwork.Clock
}

// NewResultsStore creates an empty results store.
func NewResultsStore(opts ...ResultsOption) *ResultsStore {
	s := &ResultsStore{
		records: make(map[string]GameRecord),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxRecords > 0 {
		// Evictions run inside finish, which already holds s.mu.
		s.finished, _ = lru.NewWithEvict(s.maxRecords, func(id string, _ struct{}) {
			delete(s.records, id)
		})
	}
	return s
}

// MarkPending records a newly submitted game.
func (s *ResultsStore) MarkPending(ctx context.Context, gameID string) error {
	s.mu.Lock()
	if _, ok := s.records[gameID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: game %s already recorded", ErrInvalidState, gameID)
	}
	s.records[gameID] = GameRecord{GameID: gameID, Status: StatusPending, SubmittedAt: s.clock.Now()}
	n := len(s.records)
	s.mu.Unlock()

	metrics.UpdateResultsStored(n)
	return nil
}

// MarkSettled stores the result of a pending game.
func (s *ResultsStore) MarkSettled(ctx context.Context, gameID string, res skins.Result) error {
	return s.finish(gameID, func(r *GameRecord) {
		r.Status = StatusSettled
		r.Result = &res
	})
}

// MarkFailed stores why a pending game could not be settled.
func (s *ResultsStore) MarkFailed(ctx context.Context, gameID string, cause error) error {
	return s.finish(gameID, func(r *GameRecord) {
		r.Status = StatusFailed
		if cause != nil {
			r.Error = cause.Error()
		}
	})
}

func (s *ResultsStore) finish(gameID string, apply func(*GameRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[gameID]
	if !ok {
		return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}
	if r.Status != StatusPending {
		return fmt.Errorf("%w: game %s is %s", ErrInvalidState, gameID, r.Status)
	}
	apply(&r)
	now := s.clock.Now()
	r.SettledAt = &now
	s.records[gameID] = r
	if s.finished != nil {
		s.finished.Add(gameID, struct{}{})
	}
	metrics.UpdateResultsStored(len(s.records))
	return nil
}

// Forget drops a pending record. Finished records are kept.
func (s *ResultsStore) Forget(ctx context.Context, gameID string) {
	s.mu.Lock()
	if r, ok := s.records[gameID]; ok && r.Status == StatusPending {
		delete(s.records, gameID)
	}
	n := len(s.records)
	s.mu.Unlock()
	metrics.UpdateResultsStored(n)
}

// Get returns the record for a game.
func (s *ResultsStore) Get(ctx context.Context, gameID string) (GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[gameID]
	if !ok {
		return GameRecord{}, fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}
	return r, nil
}

// Count returns the number of records.
func (s *ResultsStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
