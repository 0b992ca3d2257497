package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/skins/internal/adapters/repository"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ErrVerification is returned when any settled game or the money list
// breaks an invariant.
var ErrVerification = errors.New("verification failed")

const (
	maxSubmitAttempts = 20
	moneyListPage     = 100
)

// Runner drives one simulation.
type Runner struct {
	cfg    Config
	client *Client
	engine *skins.Engine
	log    logger.Logger
}

// NewRunner creates a runner. Engine options must match the server's
// scoring settings for the local recomputation to agree.
func NewRunner(cfg Config, opts ...skins.Option) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = DefaultSettleTimeout
	}
	return &Runner{
		cfg:    cfg,
		client: NewClient(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout}),
		engine: skins.NewEngine(opts...),
		log:    logger.Get().Named("simulate"),
	}
}

// Run generates, submits, waits for and verifies cfg.Games games.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	stats := Stats{StartTime: time.Now()}
	r.log.Info(ctx, "starting skins simulation",
		logger.String("url", r.cfg.BaseURL),
		logger.Int("games", r.cfg.Games),
		logger.Int("players", r.cfg.Players),
		logger.Int("workers", r.cfg.Workers),
		logger.Int64("seed", int64(r.cfg.Seed)),
	)

	if err := r.client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	profile, err := r.client.Course(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch course: %w", err)
	}
	before, err := r.totalWinnings(ctx)
	if err != nil {
		return stats, err
	}

	games, err := r.games(profile)
	if err != nil {
		return stats, err
	}
	stats.Generated = len(games)
	if r.cfg.Output != "" {
		if err := SaveGames(r.cfg.Output, games); err != nil {
			r.log.Warn(ctx, "failed to save games", logger.Error(err))
		}
	}

	accepted, err := r.submit(ctx, games, &stats)
	if err != nil {
		return stats, err
	}
	records, err := r.await(ctx, accepted)
	if err != nil {
		return stats, err
	}

	for i, g := range accepted {
		rec := records[i]
		if rec.Status == repository.StatusFailed {
			stats.Failed++
			stats.Mismatches = append(stats.Mismatches, fmt.Sprintf("game %s failed: %s", g.Game.ID, rec.Error))
			continue
		}
		stats.Settled++
		local, err := r.engine.Compute(ctx, skins.Input{Course: profile, Game: g.Game, Scores: g.Scores, CTPWinner: g.CTPWinner})
		if err != nil {
			stats.Mismatches = append(stats.Mismatches, fmt.Sprintf("game %s: local compute: %v", g.Game.ID, err))
			continue
		}
		problems := VerifyResult(g, rec, local)
		stats.Mismatches = append(stats.Mismatches, problems...)
		if len(problems) == 0 {
			stats.Verified++
		}
		if !rec.Result.Undistributed {
			stats.Pot += rec.Result.Pot
		}
	}

	after, err := r.totalWinnings(ctx)
	if err != nil {
		return stats, err
	}
	if delta := after - before; delta != stats.Pot {
		stats.Mismatches = append(stats.Mismatches,
			fmt.Sprintf("money list grew by %d, distributed pots total %d", delta, stats.Pot))
	}
	entries, err := r.client.MoneyList(ctx, min(moneyListPage, max(1, r.cfg.Players)))
	if err != nil {
		return stats, fmt.Errorf("fetch money list: %w", err)
	}
	stats.Mismatches = append(stats.Mismatches, VerifyMoneyList(entries)...)

	stats.Duration = time.Since(stats.StartTime)
	r.report(ctx, stats)
	if len(stats.Mismatches) > 0 {
		return stats, fmt.Errorf("%w: %d problems", ErrVerification, len(stats.Mismatches))
	}
	return stats, nil
}

// games loads cfg.Input when set and generates fresh games otherwise.
func (r *Runner) games(profile course.Profile) ([]Game, error) {
	if r.cfg.Input == "" {
		return NewGenerator(profile, r.cfg.Players, r.cfg.MaxPerGame, r.cfg.Seed).Generate(r.cfg.Games), nil
	}
	games, err := LoadGames(r.cfg.Input)
	if err != nil {
		return nil, err
	}
	for _, g := range games {
		if g.Game.Holes != profile.Holes {
			return nil, fmt.Errorf("%s: game %s has %d holes, server course %q has %d",
				r.cfg.Input, g.Game.ID, g.Game.Holes, profile.Name, profile.Holes)
		}
	}
	return games, nil
}

// submit posts every game with bounded concurrency and returns the ones the
// server accepted, in generation order.
func (r *Runner) submit(ctx context.Context, games []Game, stats *Stats) ([]Game, error) {
	outcomes := make([]string, len(games))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, game := range games {
		g.Go(func() error {
			outcome, err := r.submitOne(gctx, game)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			if r.cfg.Verbose {
				r.log.Info(gctx, "game submitted", logger.String("game_id", game.Game.ID), logger.String("outcome", outcome))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("submit games: %w", err)
	}

	var accepted []Game
	for i, o := range outcomes {
		switch o {
		case OutcomeAccepted:
			stats.Accepted++
			accepted = append(accepted, games[i])
		case OutcomeDuplicate:
			stats.Duplicate++
		default:
			stats.Rejected++
		}
	}
	r.log.Info(ctx, "games submitted",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
	)
	return accepted, nil
}

func (r *Runner) submitOne(ctx context.Context, game Game) (string, error) {
	backoff := pollInterval
	for attempt := 1; ; attempt++ {
		outcome, err := r.client.Submit(ctx, game)
		if err == nil || outcome == OutcomeRejected {
			return outcome, nil
		}
		if !errors.Is(err, ErrBackpressure) || attempt == maxSubmitAttempts {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, time.Second)
	}
}

// await polls until every game leaves the pending state.
func (r *Runner) await(ctx context.Context, games []Game) ([]repository.GameRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.SettleTimeout)
	defer cancel()

	records := make([]repository.GameRecord, len(games))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, game := range games {
		g.Go(func() error {
			for {
				rec, err := r.client.Game(gctx, game.Game.ID)
				if err != nil {
					return err
				}
				if rec.Status != repository.StatusPending {
					records[i] = rec
					return nil
				}
				select {
				case <-gctx.Done():
					return fmt.Errorf("game %s still pending: %w", game.Game.ID, gctx.Err())
				case <-time.After(pollInterval):
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("await settlement: %w", err)
	}
	return records, nil
}

func (r *Runner) totalWinnings(ctx context.Context) (int64, error) {
	st, err := r.client.Stats(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch stats: %w", err)
	}
	v, _ := st["totalWinnings"].(float64)
	return int64(v), nil
}

func (r *Runner) report(ctx context.Context, s Stats) {
	var perSecond float64
	if s.Duration > 0 {
		perSecond = float64(s.Accepted) / s.Duration.Seconds()
	}
	r.log.Info(ctx, "simulation finished",
		logger.Int("generated", s.Generated),
		logger.Int("accepted", s.Accepted),
		logger.Int("duplicate", s.Duplicate),
		logger.Int("rejected", s.Rejected),
		logger.Int("settled", s.Settled),
		logger.Int("failed", s.Failed),
		logger.Int("verified", s.Verified),
		logger.Int64("pot", s.Pot),
		logger.String("duration", s.Duration.String()),
		logger.Float64("games_per_second", perSecond),
	)
	for _, m := range s.Mismatches {
		r.log.Warn(ctx, "verification problem", logger.String("detail", m))
	}
}
