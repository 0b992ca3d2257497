package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/skins/internal/adapters/http/api"
	"github.com/okian/skins/internal/adapters/http/site"
	"github.com/okian/skins/internal/adapters/http/swagger"
	app "github.com/okian/skins/internal/app"
	"github.com/okian/skins/internal/config"
	"github.com/okian/skins/pkg/logger"
	"github.com/okian/skins/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "skinsd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Get()

	profile, err := cfg.Profile()
	if err != nil {
		return err
	}
	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithCourse(profile),
		app.WithEngineOptions(cfg.EngineOptions()...),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	handler, err := newHandler(svc, cfg.MaxMoneyListLimit)
	if err != nil {
		_ = svc.Stop(ctx)
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		updateServiceMetrics(gctx, svc)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		httpErr := srv.Shutdown(shutdownCtx)
		svcErr := svc.Stop(shutdownCtx)
		return errors.Join(httpErr, svcErr)
	})

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

// newHandler assembles the full route tree.
func newHandler(svc *app.Service, maxLimit int) (http.Handler, error) {
	r := api.NewRouter(api.NewServer(svc, svc, maxLimit))
	if err := swagger.Register(r); err != nil {
		return nil, err
	}
	site.Register(r, svc)
	return r, nil
}

// updateServiceMetrics refreshes service and system gauges until ctx ends.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if n, ok := stats["queueLength"].(int); ok {
				metrics.UpdateQueueSize(n)
			}
			if n, ok := stats["players"].(int); ok {
				metrics.UpdateMoneyListPlayers(n)
			}
			if n, ok := stats["workerCount"].(int); ok {
				metrics.UpdateWorkerCount(n)
			}
		}
	}
}

