// Package dispatcher runs each submitted job on its own background goroutine
// and keeps a handle per job so callers can observe and drain them.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/JakeFAU/contact-extractor/internal/contact"
	"github.com/JakeFAU/contact-extractor/internal/metrics"
)

// ErrShuttingDown is returned by Submit once Shutdown has begun.
var ErrShuttingDown = errors.New("dispatcher shutting down")

// Runner processes one job to completion.
type Runner interface {
	Process(ctx context.Context, job contact.Job)
}

// PanicHandler is invoked when a Runner panics while processing job.
type PanicHandler func(job contact.Job, err error)

// Handle tracks one background job.
type Handle struct {
	JobID string
	done  chan struct{}
}

// Done is closed when the job's goroutine returns.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Dispatcher owns the background goroutines of every running job.
type Dispatcher struct {
	runner  Runner
	onPanic PanicHandler
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu     sync.Mutex
	active map[string]*Handle
	closed bool
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithPanicHandler registers fn to run after a job panics.
func WithPanicHandler(fn PanicHandler) Option {
	return func(d *Dispatcher) {
		d.onPanic = fn
	}
}

// New creates a Dispatcher. Jobs share a base context that is cancelled by Shutdown.
func New(runner Runner, logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		active: make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit starts job in the background and returns immediately.
func (d *Dispatcher) Submit(job contact.Job) (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrShuttingDown
	}
	if _, exists := d.active[job.ID]; exists {
		return nil, fmt.Errorf("submit %s: %w", job.ID, contact.ErrJobExists)
	}
	h := &Handle{JobID: job.ID, done: make(chan struct{})}
	d.active[job.ID] = h
	metrics.IncActiveJobs()
	d.wg.Go(func() {
		d.run(h, job)
	})
	d.logger.Debug("job dispatched", zap.String("job_id", job.ID))
	return h, nil
}

func (d *Dispatcher) run(h *Handle, job contact.Job) {
	defer func() {
		d.mu.Lock()
		delete(d.active, h.JobID)
		d.mu.Unlock()
		metrics.DecActiveJobs()
		close(h.done)
	}()

	var catcher panics.Catcher
	catcher.Try(func() {
		d.runner.Process(d.ctx, job)
	})
	if rec := catcher.Recovered(); rec != nil {
		d.logger.Error("job panicked",
			zap.String("job_id", job.ID),
			zap.Any("panic", rec.Value),
			zap.ByteString("stack", rec.Stack),
		)
		if d.onPanic != nil {
			d.onPanic(job, rec.AsError())
		}
	}
}

// Active reports how many jobs are still running.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.active)
}

// Shutdown stops accepting jobs, cancels the running ones, and waits for
// their goroutines until ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}
