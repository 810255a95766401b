package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrShuttingDown is returned by Submit once Shutdown has started.
var ErrShuttingDown = errors.New("deferred executor is shutting down")

// Task is work that runs after the webhook has been answered.
type Task func(ctx context.Context) error

type DeferredConfig struct {
	Timeout        time.Duration // per task, counted from when it starts running
	MaxConcurrency int
}

// Deferred runs tasks in the background after the request that submitted them has
// returned. A running task cannot be cancelled; it ends on completion, failure or
// its own timeout.
type Deferred struct {
	cfg DeferredConfig
	sem chan struct{}

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

func NewDeferred(cfg DeferredConfig) *Deferred {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 16
	}
	return &Deferred{
		cfg: cfg,
		sem: make(chan struct{}, cfg.MaxConcurrency),
	}
}

// Submit schedules task and returns immediately. The task sees ctx's values (log
// fields, trace) but not its cancellation.
func (d *Deferred) Submit(ctx context.Context, name string, task Task) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrShuttingDown
	}
	d.inflight.Add(1)
	d.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer d.inflight.Done()

		d.sem <- struct{}{}
		defer func() { <-d.sem }()

		d.run(detached, name, task)
	}()
	return nil
}

func (d *Deferred) run(ctx context.Context, name string, task Task) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := safeRun(ctx, task)
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "deferred task failed",
			"task", name,
			"duration_ms", duration.Milliseconds(),
			"timed_out", errors.Is(err, context.DeadlineExceeded),
			"error", err)
		return
	}
	slog.InfoContext(ctx, "deferred task completed",
		"task", name,
		"duration_ms", duration.Milliseconds())
}

func safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(ctx)
}

// Shutdown stops accepting tasks and waits for submitted ones until ctx is done.
func (d *Deferred) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for deferred tasks: %w", ctx.Err())
	}
}
