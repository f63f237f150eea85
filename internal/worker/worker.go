// Package worker implements the per-job extraction loop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/contact-extractor/internal/contact"
	"github.com/JakeFAU/contact-extractor/internal/metrics"
	"github.com/JakeFAU/contact-extractor/internal/progress"
)

// Config controls Worker behavior.
type Config struct {
	// MaxRetries is the number of extra attempts after the first failure.
	MaxRetries int
	// RetryBaseDelay is multiplied by the attempt number between attempts.
	RetryBaseDelay time.Duration
	// PolitenessDelay separates consecutive URLs of one job.
	PolitenessDelay time.Duration
}

// Pauser waits between attempts and between URLs.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauser struct{}

func (timerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Worker walks a job's URLs sequentially, extracting addresses from each
// page and writing progress back to the job store.
type Worker struct {
	jobStore  contact.JobStore
	fetcher   contact.Fetcher
	extractor contact.Extractor
	clock     contact.Clock
	emitter   progress.Emitter
	pauser    Pauser
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Worker.
func New(
	jobStore contact.JobStore,
	fetcher contact.Fetcher,
	extractor contact.Extractor,
	clock contact.Clock,
	emitter progress.Emitter,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Worker{
		jobStore:  jobStore,
		fetcher:   fetcher,
		extractor: extractor,
		clock:     clock,
		emitter:   emitter,
		pauser:    timerPauser{},
		cfg:       cfg,
		logger:    logger,
	}
}

// urlOutcome is the result of the retrying fetch+extract unit for one URL.
type urlOutcome struct {
	emails   []string
	page     contact.Page
	attempts int
	err      error
}

// Process runs job to completion. Per-URL failures are logged and never fail
// the job; the job is marked completed once every URL was visited or ctx ends.
func (w *Worker) Process(ctx context.Context, job contact.Job) {
	logger := w.logger.With(zap.String("job_id", job.ID))
	started := w.clock.Now()
	logger.Info("job started", zap.Int("urls", len(job.URLs)))
	w.emitter.Emit(progress.Event{JobID: job.ID, TS: started, Stage: progress.StageJobStart})

	var (
		successCount int
		emailsTotal  int
	)
	for i, url := range job.URLs {
		if ctx.Err() != nil {
			logger.Warn("job interrupted", zap.Int("processed", i), zap.Error(ctx.Err()))
			break
		}
		urlStart := w.clock.Now()
		outcome := w.extractWithRetry(ctx, logger, url)

		records := make([]contact.Record, 0, len(outcome.emails))
		for _, email := range outcome.emails {
			records = append(records, contact.Record{URL: url, Email: email})
		}
		if len(records) > 0 {
			successCount++
			emailsTotal += len(records)
		}
		update := contact.ProgressUpdate{Records: records, Processed: i + 1, SuccessCount: successCount}
		if err := w.jobStore.RecordProgress(ctx, job.ID, update); err != nil {
			logger.Error("record progress failed", zap.String("url", url), zap.Error(err))
		}
		w.emitURL(job.ID, url, outcome, w.clock.Now().Sub(urlStart))
		logger.Info("url processed",
			zap.String("url", url),
			zap.Int("emails", len(records)),
			zap.Int("processed", i+1),
			zap.Int("total", len(job.URLs)),
		)

		if i < len(job.URLs)-1 {
			w.pauser.Pause(ctx, w.cfg.PolitenessDelay)
		}
	}

	finished := w.clock.Now()
	if err := w.jobStore.CompleteJob(ctx, job.ID, finished); err != nil {
		logger.Error("complete job failed", zap.Error(err))
	}
	w.emitter.Emit(progress.Event{
		JobID:  job.ID,
		TS:     finished,
		Stage:  progress.StageJobDone,
		Emails: emailsTotal,
		Dur:    nonNegative(finished.Sub(started)),
	})
	logger.Info("job completed",
		zap.Int("emails", emailsTotal),
		zap.Int("successful_urls", successCount),
		zap.Duration("dur", finished.Sub(started)),
	)
}

// Extract runs the retrying unit for a single URL outside of any job.
func (w *Worker) Extract(ctx context.Context, url string) ([]string, error) {
	outcome := w.extractWithRetry(ctx, w.logger, url)
	if outcome.err != nil {
		return nil, outcome.err
	}
	return outcome.emails, nil
}

func (w *Worker) extractWithRetry(ctx context.Context, logger *zap.Logger, url string) urlOutcome {
	maxAttempts := w.cfg.MaxRetries + 1
	var out urlOutcome
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out.attempts = attempt
		page, emails, err := w.extractOnce(ctx, url)
		if err == nil {
			out.page, out.emails, out.err = page, emails, nil
			return out
		}
		out.err = err
		logger.Warn("extraction attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err),
		)
		if attempt == maxAttempts || ctx.Err() != nil || errors.Is(err, contact.ErrBlocked) {
			break
		}
		w.pauser.Pause(ctx, w.cfg.RetryBaseDelay*time.Duration(attempt))
	}
	return out
}

func (w *Worker) extractOnce(ctx context.Context, url string) (contact.Page, []string, error) {
	page, err := w.fetcher.Fetch(ctx, url)
	if err != nil {
		return contact.Page{}, nil, fmt.Errorf("fetch: %w", err)
	}
	emails, err := w.extractor.Extract(page.Body)
	if err != nil {
		return contact.Page{}, nil, fmt.Errorf("extract: %w", err)
	}
	return page, emails, nil
}

func (w *Worker) emitURL(jobID, url string, outcome urlOutcome, dur time.Duration) {
	evt := progress.Event{
		JobID:    jobID,
		TS:       w.clock.Now(),
		Stage:    progress.StageURLDone,
		Site:     metrics.SanitizeSite(url),
		URL:      url,
		Emails:   len(outcome.emails),
		Attempts: outcome.attempts,
		Strategy: outcome.page.Strategy,
		Bytes:    int64(len(outcome.page.Body)),
		Dur:      nonNegative(dur),
	}
	if outcome.err != nil {
		evt.Stage = progress.StageURLFailed
		evt.Note = outcome.err.Error()
	}
	w.emitter.Emit(evt)
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
