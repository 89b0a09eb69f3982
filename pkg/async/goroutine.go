package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/platinummonkey/launchpad/pkg/observability"
)

// Runner starts background tasks with panic recovery and a per-task timeout, and tracks them
// so shutdown can wait for in-flight work (audit writes, cache invalidations) to finish.
type Runner struct {
	logger *observability.Logger
	wg     sync.WaitGroup
}

// NewRunner creates a runner logging task failures to logger
func NewRunner(logger *observability.Logger) *Runner {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Runner{logger: logger}
}

// Go executes fn in a goroutine. The task context derives from parentCtx without its
// cancellation, so a finished HTTP request does not abort the task; timeout still bounds it.
//
// Example:
//
//	runner.Go(r.Context(), 5*time.Second, "audit billing.cancel", func(ctx context.Context) error {
//	    return auditLogger.Log(ctx, event)
//	})
func (r *Runner) Go(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parentCtx), timeout)
		defer cancel()

		logger := observability.FromContext(parentCtx).WithField("task", taskName)
		if err := run(ctx, fn); err != nil {
			logger.WithError(err).Error("background task failed")
		}
	}()
}

// Wait blocks until every task started with Go has returned or ctx is done
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}

// run executes fn converting a panic into an error carrying the stack
func run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return fn(ctx)
}
