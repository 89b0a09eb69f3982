// Package async runs background tasks safely.
//
// Runner.Go replaces bare `go func()` for fire-and-forget work such as audit writes: each task
// gets panic recovery, a timeout, and a context detached from the caller's cancellation.
// Failures are logged through the context logger. Runner.Wait lets shutdown drain in-flight
// tasks.
//
//	runner := async.NewRunner(logger)
//	runner.Go(ctx, 5*time.Second, "audit", func(ctx context.Context) error {
//		return auditLogger.Log(ctx, event)
//	})
//	defer runner.Wait(shutdownCtx)
package async
