// Package worker settles queued games: it runs the skins engine, records the
// outcome and credits the money list.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/skins/internal/adapters/mq/queue"
	"github.com/okian/skins/internal/adapters/repository"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/model"
	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/pkg/logger"
	"github.com/okian/skins/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Ledger credits settled games to the money list.
type Ledger interface {
	Credit(ctx context.Context, credits ...repository.Credit) error
}

// Recorder stores the settlement outcome of a game.
type Recorder interface {
	MarkSettled(ctx context.Context, gameID string, res skins.Result) error
	MarkFailed(ctx context.Context, gameID string, cause error) error
}

// Queue defines how workers receive settlements.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Settlement
}

// Deps are the collaborators every worker shares.
type Deps struct {
	Queue    Queue
	Computer skins.Computer
	Ledger   Ledger
	Recorder Recorder
	Course   course.Profile
}

// Worker processes settlements until its queue is drained or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the settlement in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	deps Deps
	name string

	settled atomic.Int64
	failed  atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(deps Deps, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		deps:     deps,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	settlements := w.deps.Queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-settlements:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error settling game",
					logger.String("game_id", s.Game.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process settles one game. Invalid games are recorded as failed and are
// not returned as errors; only store failures are.
func (w *InMemoryWorker) process(ctx context.Context, s queue.Settlement) error { //nolint:gocritic // hugeParam: received by value from the channel
	metrics.AddWorkerActive(1)
	start := time.Now()
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	engineStart := time.Now()
	res, err := w.deps.Computer.Compute(ctx, skins.Input{
		Course:    w.deps.Course,
		Game:      s.Game,
		Scores:    s.Scores,
		CTPWinner: s.CTPWinner,
	})
	metrics.RecordEngineLatency(float64(time.Since(engineStart).Microseconds()) / 1000)

	if err != nil {
		w.failed.Add(1)
		metrics.RecordGameFailed()
		metrics.RecordErrorByComponent("worker", errorType(err))
		w.logger.Warn(ctx, "game rejected",
			logger.String("game_id", s.Game.ID),
			logger.Error(err),
		)
		if markErr := w.deps.Recorder.MarkFailed(ctx, s.Game.ID, err); markErr != nil {
			metrics.RecordWorkerError()
			return fmt.Errorf("record failure of %s: %w", s.Game.ID, markErr)
		}
		return nil
	}

	if err := w.deps.Ledger.Credit(ctx, Credits(s.Game, res)...); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "ledger_error")
		metrics.RecordErrorByType("ledger_error", "high")
		_ = w.deps.Recorder.MarkFailed(ctx, s.Game.ID, err)
		return fmt.Errorf("credit money list for %s: %w", s.Game.ID, err)
	}
	if err := w.deps.Recorder.MarkSettled(ctx, s.Game.ID, res); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("record result of %s: %w", s.Game.ID, err)
	}

	w.settled.Add(1)
	recordSettled(res)
	w.logger.Debug(ctx, "game settled",
		logger.String("game_id", s.Game.ID),
		logger.Int("skins", res.TotalSkins),
		logger.Int64("pot", res.Pot),
	)
	return nil
}

func recordSettled(res skins.Result) {
	metrics.RecordGameSettled()
	var regular, ctp int
	for _, a := range res.Skins {
		if a.Kind == model.SkinCTP {
			ctp++
		} else {
			regular++
		}
	}
	metrics.RecordSkinsAwarded(metrics.KindRegular, regular)
	metrics.RecordSkinsAwarded(metrics.KindCTP, ctp)
	if res.Undistributed {
		metrics.RecordPotUndistributed()
		return
	}
	metrics.RecordPotDistributed(res.Pot)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, skins.ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, skins.ErrInvalidInput):
		return "invalid_input"
	default:
		return "engine_error"
	}
}

// Credits turns a settled game into money list credits: one per participant,
// in roster order, with zero amounts for players who won nothing.
func Credits(g model.Game, res skins.Result) []repository.Credit {
	paid := make(map[string]model.PayoutEntry, len(res.Payouts))
	for _, p := range res.Payouts {
		paid[p.PlayerID] = p
	}
	out := make([]repository.Credit, 0, len(g.Participants))
	for _, p := range g.Participants {
		e := paid[p.ID]
		out = append(out, repository.Credit{
			PlayerID: p.ID,
			Name:     p.Name,
			Amount:   e.Amount,
			Skins:    e.Skins,
		})
	}
	return out
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one means
// one worker per CPU.
func NewPool(workerCount int, deps Deps, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   deps.Queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(deps, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Settled returns the number of games settled by the pool.
func (p *Pool) Settled() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.settled.Load()
	}
	return n
}

// Failed returns the number of games the pool rejected.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.failed.Load()
	}
	return n
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// busy when ctx (or the pool timeout) expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			timedOut = true
		}
		if timedOut {
			break
		}
	}
	if !timedOut {
		return nil
	}

	p.logger.Warn(ctx, "queue not drained before timeout, stopping workers")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	var errs []error
	for i, w := range p.workers {
		if err := w.Shutdown(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("worker %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
