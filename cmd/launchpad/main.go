package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/launchpad/pkg/api"
	"github.com/platinummonkey/launchpad/pkg/async"
	"github.com/platinummonkey/launchpad/pkg/audit"
	"github.com/platinummonkey/launchpad/pkg/auth"
	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/catalog"
	"github.com/platinummonkey/launchpad/pkg/config"
	"github.com/platinummonkey/launchpad/pkg/middleware"
	"github.com/platinummonkey/launchpad/pkg/observability"
	"github.com/platinummonkey/launchpad/pkg/projects"
	"github.com/platinummonkey/launchpad/pkg/reporting"
	"github.com/platinummonkey/launchpad/pkg/storage"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "launchpad: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", "launchpad").
		WithField("version", version)
	defer observability.RecoverPanic(logger, "main")

	ctx, stop := observability.SignalContext(context.Background())
	defer stop()

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	otelCfg := cfg.Observability.OTel()
	otelCfg.ServiceVersion = version
	providers, err := observability.InitOTel(ctx, otelCfg, logger)
	if err != nil {
		return err
	}
	shutdown.Register("otel", providers.Shutdown)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	backend, err := storage.Open(ctx, cfg.Storage, logger, metrics)
	if err != nil {
		_ = shutdown.Shutdown()
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Type, err)
	}
	shutdown.Register("storage", func(context.Context) error { return backend.Close() })
	if backend.Conns != nil {
		if err := backend.Conns.RegisterMetrics(registry); err != nil {
			_ = shutdown.Shutdown()
			return fmt.Errorf("failed to register pool metrics: %w", err)
		}
	}
	logger.WithField("storage", cfg.Storage.Type).Info("Storage initialized")

	source, watcher, err := openCatalog(cfg.Billing, logger, metrics)
	if err != nil {
		_ = shutdown.Shutdown()
		return err
	}
	logger.WithField("catalog", source.Current().Name).Info("Catalog loaded")

	auditLogger, err := openAudit(ctx, backend, logger)
	if err != nil {
		_ = shutdown.Shutdown()
		return err
	}
	shutdown.Register("audit", func(context.Context) error { return auditLogger.Close() })

	runner := async.NewRunner(logger)
	shutdown.Register("background tasks", runner.Wait)

	manager := billing.NewManager(backend.Billing, source,
		billing.WithAuditLogger(auditLogger, runner),
		billing.WithMetrics(metrics),
	)
	projectService := projects.NewService(backend.Projects, backend.Billing, source, auditLogger, runner)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, auth.WithTTL(cfg.Auth.TokenTTL))
	if err != nil {
		_ = shutdown.Shutdown()
		return err
	}

	var limiter middleware.Limiter
	switch {
	case !cfg.RateLimit.Enabled:
	case cfg.RateLimit.Distributed:
		limiter = middleware.NewDistributedRateLimiter(backend.Redis, cfg.RateLimit.Middleware(), "")
	default:
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Middleware())
	}

	server, err := api.NewServer(api.Config{
		Billing:      manager,
		Projects:     projectService,
		Auth:         tokens,
		Limiter:      limiter,
		Metrics:      metrics,
		Logger:       logger,
		CORSOrigins:  cfg.Server.CORSOrigins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		_ = shutdown.Shutdown()
		return err
	}

	var handler http.Handler = server
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(server, "launchpad")
	}

	reporter := reporting.NewReporter(backend.Billing, source, metrics.Subscriptions, logger)
	if err := reporter.Start(ctx, cfg.Observability.ReportingSchedule); err != nil {
		_ = shutdown.Shutdown()
		return err
	}
	shutdown.Register("reporting", reporter.Stop)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	checker := observability.NewHealthChecker(backend.DB, backend.Redis, version)
	if backend.Conns != nil && len(cfg.Storage.PostgresReplicaURLs) > 0 {
		checker.AddCheck("postgres_replicas", backend.Conns.HealthCheck)
	}
	observability.RegisterHealthRoutes(healthMux, checker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown.Register("health server", healthServer.Shutdown)
	shutdown.Register("http server", httpServer.Shutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", httpServer.Addr).Info("Starting API server")
		return serve(httpServer)
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("Starting health server")
		return serve(healthServer)
	})
	if watcher != nil {
		g.Go(func() error {
			watcher.Run(gctx)
			return nil
		})
		shutdown.Register("catalog watcher", func(context.Context) error { return watcher.Close() })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		return shutdown.Shutdown()
	})

	return g.Wait()
}

// serve runs srv until Shutdown is called
func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", srv.Addr, err)
	}
	return nil
}

// openCatalog resolves the plan catalog. The watcher is nil unless the file is watched.
func openCatalog(cfg config.BillingConfig, logger *observability.Logger, metrics *observability.Metrics) (catalog.Source, *catalog.Watcher, error) {
	if cfg.CatalogFile == "" {
		cat, err := catalog.ByName(cfg.Catalog)
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewStatic(cat), nil, nil
	}

	if !cfg.CatalogWatch {
		cat, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewStatic(cat), nil, nil
	}

	watcher, err := catalog.NewWatcher(cfg.CatalogFile, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.OnReload(func(*catalog.Catalog) { metrics.CatalogReloadsTotal.Inc() })
	return watcher, watcher, nil
}

// openAudit always writes audit events to the log, and also to Postgres when it is the store
func openAudit(ctx context.Context, backend *storage.Backend, logger *observability.Logger) (audit.Logger, error) {
	structured := audit.NewStructuredLogger(logger)
	if backend.DB == nil {
		return structured, nil
	}
	dbLogger, err := audit.NewDBLogger(ctx, backend.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit log: %w", err)
	}
	return audit.NewMultiLogger(dbLogger, structured), nil
}
