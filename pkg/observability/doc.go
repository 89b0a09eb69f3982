// Package observability provides structured logging, Prometheus metrics, health
// checks, OpenTelemetry setup and graceful shutdown for the launchpad server.
//
// # Logging
//
// Logger wraps log/slog with a JSON handler and field chaining:
//
//	logger := observability.NewLogger(observability.LevelInfo, os.Stdout)
//	logger.WithField("user_id", id).WithError(err).Error("Plan change failed")
//
// A request-scoped logger travels in the context. FromContext adds request_id,
// user_id and, inside a recording span, trace_id and span_id.
//
// # Metrics
//
// NewMetrics registers every collector on the given registerer so tests can use
// a private prometheus.Registry:
//
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//
// Request metrics are labelled with the mux route template, never the raw path.
//
// # Health
//
// RegisterHealthRoutes mounts /health/live and /health/ready. Readiness pings
// Postgres and Redis when they are configured.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel(), logger)
//	defer providers.Shutdown(ctx)
//
// InitOTel leaves the global no-op providers in place when OTel is disabled.
//
// # Shutdown
//
// ShutdownManager runs registered hooks in reverse order under one timeout.
package observability
