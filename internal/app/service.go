// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/skins/internal/adapters/mq/queue"
	"github.com/okian/skins/internal/adapters/mq/worker"
	"github.com/okian/skins/internal/adapters/repository"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/dedupe"
	"github.com/okian/skins/internal/domain/model"
	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/internal/domain/types"
	"github.com/okian/skins/pkg/logger"
	"github.com/okian/skins/pkg/metrics"
)

// ErrNotStarted is returned by operations that need a running service.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the skins system.
type Service struct {
	mu sync.RWMutex

	deduper   dedupe.Deduper
	engine    *skins.Engine
	course    course.Profile
	queue     *queue.InMemoryQueue
	moneyList *repository.TreapStore
	results   *repository.ResultsStore
	pool      *worker.Pool

	workerCount int
	queueSize   int
	dedupeSize  int
	engineOpts  []skins.Option
	clock       clockwork.Clock

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of settlement workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the settlement queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many game IDs are remembered. It also bounds the
// number of finished game records kept.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCourse sets the course every game is played on.
func WithCourse(p course.Profile) Option {
	return func(s *Service) {
		s.course = p.Clone()
	}
}

// WithEngineOptions passes options through to the skins engine.
func WithEngineOptions(opts ...skins.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithClock sets the clock used for result timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
		course:      course.Default18(),
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.engine = skins.NewEngine(append([]skins.Option{skins.WithLogger(s.logger.Named("engine"))}, s.engineOpts...)...)
	return s
}

// Start builds the stores and queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.course.Validate(); err != nil {
		return fmt.Errorf("course %q: %w", s.course.Name, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.moneyList = repository.NewTreapStore(runCtx)
	s.results = repository.NewResultsStore(
		repository.WithResultsClock(s.clock),
		repository.WithMaxRecords(s.dedupeSize),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, worker.Deps{
		Queue:    s.queue,
		Computer: s.engine,
		Ledger:   s.moneyList,
		Recorder: s.results,
		Course:   s.course,
	})
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "skins service started",
		logger.String("course", s.course.Name),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue, waits for queued games to settle and closes the
// stores. Stores stay readable after Stop.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping skins service")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("worker pool: %w", err))
	}
	if err := s.moneyList.Close(); err != nil {
		errs = append(errs, fmt.Errorf("money list: %w", err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "skins service stopped",
		logger.Int64("settled", s.pool.Settled()),
		logger.Int64("failed", s.pool.Failed()),
	)
	return errors.Join(errs...)
}

// SeenAndRecord reports whether a game ID was already submitted and records
// it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord forgets a game ID so a rejected submission can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of remembered game IDs.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// Enqueue records the game as pending and queues it for settlement. The
// pending record is dropped again when the queue refuses the game.
func (s *Service) Enqueue(ctx context.Context, st model.Settlement) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return fmt.Errorf("%w: %w", ErrNotStarted, queue.ErrClosed)
	}
	if st.SubmittedAt.IsZero() {
		st.SubmittedAt = s.clock.Now()
	}
	if err := s.results.MarkPending(ctx, st.Game.ID); err != nil {
		return err
	}
	if err := s.queue.Enqueue(ctx, st); err != nil {
		s.results.Forget(ctx, st.Game.ID)
		metrics.RecordErrorByComponent("service", "enqueue")
		s.logger.Warn(ctx, "game not queued",
			logger.String("game_id", st.Game.ID),
			logger.Error(err),
		)
		return err
	}
	s.logger.Debug(ctx, "game queued",
		logger.String("game_id", st.Game.ID),
		logger.Int("players", len(st.Game.Participants)),
	)
	return nil
}

// Preview computes a game's result on the configured course without
// recording anything.
func (s *Service) Preview(ctx context.Context, st model.Settlement) (skins.Result, error) {
	start := time.Now()
	res, err := s.engine.Compute(ctx, skins.Input{
		Course:    s.course,
		Game:      st.Game,
		Scores:    st.Scores,
		CTPWinner: st.CTPWinner,
	})
	metrics.RecordEngineLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordErrorByComponent("engine", "preview")
		return skins.Result{}, err
	}
	return res, nil
}

// Game returns the settlement record of a submitted game.
func (s *Service) Game(ctx context.Context, gameID string) (repository.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.results == nil {
		return repository.GameRecord{}, ErrNotStarted
	}
	return s.results.Get(ctx, gameID)
}

// TopN returns the top N money list entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.moneyList == nil {
		return nil, ErrNotStarted
	}
	return s.moneyList.TopN(ctx, n)
}

// Rank returns the standing of one player.
func (s *Service) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.moneyList == nil {
		return types.Entry{}, ErrNotStarted
	}
	return s.moneyList.Rank(ctx, playerID)
}

// Course returns a copy of the configured course.
func (s *Service) Course() course.Profile {
	return s.course.Clone()
}

// GetStats returns service statistics for monitoring. It also refreshes
// the system gauges.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"course":      s.course.Name,
		"holes":       s.course.Holes,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"seenGames":   s.deduper.Size(),
	}

	if s.queue != nil {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["players"] = s.moneyList.Count(ctx)
		stats["totalWinnings"] = s.moneyList.Total(ctx)
		stats["gamesRecorded"] = s.results.Count(ctx)
		stats["gamesSettled"] = s.pool.Settled()
		stats["gamesFailed"] = s.pool.Failed()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(goroutines)
	if mem.NumGC > 0 {
		metrics.RecordSystemGCPauseTime(float64(mem.PauseNs[(mem.NumGC+255)%256]) / 1e6)
	}
	stats["goroutines"] = goroutines
	stats["heapAlloc"] = mem.Alloc
	return stats
}
