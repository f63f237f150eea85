// Package app initializes and holds the long-lived services of the extractor,
// acting as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/contact-extractor/internal/api"
	"github.com/JakeFAU/contact-extractor/internal/clock/system"
	"github.com/JakeFAU/contact-extractor/internal/config"
	"github.com/JakeFAU/contact-extractor/internal/contact"
	"github.com/JakeFAU/contact-extractor/internal/dispatcher"
	"github.com/JakeFAU/contact-extractor/internal/extractor"
	"github.com/JakeFAU/contact-extractor/internal/fetcher"
	"github.com/JakeFAU/contact-extractor/internal/id/uuid"
	"github.com/JakeFAU/contact-extractor/internal/metrics"
	"github.com/JakeFAU/contact-extractor/internal/policy/ratelimit"
	"github.com/JakeFAU/contact-extractor/internal/policy/simple"
	"github.com/JakeFAU/contact-extractor/internal/progress"
	"github.com/JakeFAU/contact-extractor/internal/progress/sinks"
	"github.com/JakeFAU/contact-extractor/internal/storage/memory"
	"github.com/JakeFAU/contact-extractor/internal/worker"
)

// Options carries dependencies that tests may override.
type Options struct {
	// Registerer receives the progress collectors; nil means the default registry.
	Registerer prometheus.Registerer
	// Fetcher replaces the Colly fetcher.
	Fetcher    contact.Fetcher
	Version    string
}

// App holds the shared services for one process.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	clock      contact.Clock
	jobStore   *memory.JobStore
	hub        *progress.Hub
	worker     *worker.Worker
	dispatcher *dispatcher.Dispatcher
	server     *api.Server
}

// New wires every component from cfg. It fails fast when a collector cannot be registered.
func New(cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	promSink, err := sinks.NewPrometheusSink(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("init prometheus sink: %w", err)
	}
	hub := progress.NewHub(progress.Config{
		BufferSize:     cfg.Progress.BufferSize,
		MaxBatchEvents: cfg.Progress.MaxBatchEvents,
		MaxBatchWait:   cfg.Progress.MaxBatchWait,
		Logger:         logger.Named("progress"),
	}, sinks.NewLogSink(logger.Named("progress")), promSink)

	pageFetcher := opts.Fetcher
	if pageFetcher == nil {
		limiter := ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.Fetcher.HostRPS,
			DefaultBurst: cfg.Fetcher.HostBurst,
		})
		fetcherCfg := fetcher.Config{
			UserAgents:   cfg.Fetcher.UserAgents,
			MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
		}
		pageFetcher = fetcher.New(fetcherCfg,
			fetcher.WithLimiter(limiter),
			fetcher.WithPolicy(simple.New(cfg.Fetcher.BlockedDomains)),
			fetcher.WithLogger(logger.Named("fetcher")),
		)
	}

	clock := system.New()
	jobStore := memory.NewJobStore()
	w := worker.New(
		jobStore,
		pageFetcher,
		extractor.New(),
		clock,
		hub,
		worker.Config{
			MaxRetries:      cfg.Extract.MaxRetries,
			RetryBaseDelay:  cfg.Extract.RetryBaseDelay,
			PolitenessDelay: cfg.Extract.PolitenessDelay,
		},
		logger.Named("worker"),
	)

	dispatch := dispatcher.New(w, logger.Named("dispatcher"),
		dispatcher.WithPanicHandler(func(job contact.Job, _ error) {
			// Close the job so pollers see a terminal state with whatever was recorded.
			if err := jobStore.CompleteJob(context.Background(), job.ID, clock.Now()); err != nil &&
				!errors.Is(err, contact.ErrJobCompleted) {
				logger.Error("complete panicked job failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}),
	)

	var serverOpts []api.Option
	if opts.Version != "" {
		serverOpts = append(serverOpts, api.WithVersion(opts.Version))
	}
	server := api.NewServer(jobStore, dispatch, uuid.NewGenerator(), clock, cfg, logger.Named("api"), serverOpts...)

	return &App{
		cfg:        cfg,
		logger:     logger,
		clock:      clock,
		jobStore:   jobStore,
		hub:        hub,
		worker:     w,
		dispatcher: dispatch,
		server:     server,
	}, nil
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Now reads the service clock.
func (a *App) Now() time.Time {
	return a.clock.Now()
}

// Server returns the HTTP API.
func (a *App) Server() *api.Server {
	return a.server
}

// Worker returns the extraction worker for synchronous use.
func (a *App) Worker() *worker.Worker {
	return a.worker
}

// JobStore exposes the job registry.
func (a *App) JobStore() contact.JobStore {
	return a.jobStore
}

// Close drains running jobs and flushes progress sinks until ctx expires.
func (a *App) Close(ctx context.Context) error {
	a.logger.Info("shutting down application services")
	var errs []error
	if err := a.dispatcher.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.hub.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close progress hub: %w", err))
	}
	if dropped := a.hub.Dropped(); dropped > 0 {
		a.logger.Warn("progress events dropped", zap.Int64("count", dropped))
	}
	return errors.Join(errs...)
}

// ShutdownTimeout bounds Close during process exit.
func (a *App) ShutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeout <= 0 {
		return 15 * time.Second
	}
	return a.cfg.Server.ShutdownTimeout
}
