package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/observability"
	"github.com/platinummonkey/launchpad/pkg/projects"
	"github.com/platinummonkey/launchpad/pkg/storage/cache"
	"github.com/platinummonkey/launchpad/pkg/storage/memory"
	"github.com/platinummonkey/launchpad/pkg/storage/postgres"
)

// Backend types
const (
	TypeMemory   = "memory"
	TypePostgres = "postgres"
)

// Config for storage backend
type Config struct {
	Type string // "memory" or "postgres"

	// PostgreSQL config
	PostgresURL         string
	PostgresReplicaURLs []string
	PostgresMaxConns    int
	PostgresMinConns    int
	PostgresTimeout     time.Duration
	PostgresMaxLifetime time.Duration
	PostgresMaxIdleTime time.Duration
	// ReplicaCheckInterval is how often unreachable replicas are pruned
	ReplicaCheckInterval time.Duration
	// EnsureSchema creates missing tables on startup
	EnsureSchema bool

	// Redis config
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int

	// Cache config
	CacheTTL time.Duration
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Type:                TypeMemory,
		PostgresMaxConns:    20,
		PostgresMinConns:    2,
		PostgresTimeout:     10 * time.Second,
		PostgresMaxLifetime: time.Hour,
		PostgresMaxIdleTime: 10 * time.Minute,
		ReplicaCheckInterval: postgres.DefaultReplicaCheckInterval,
		EnsureSchema:        true,
		RedisMaxRetries:     3,
		RedisPoolSize:       10,
		CacheTTL:            cache.DefaultTTL,
	}
}

// Backend is an opened storage backend
type Backend struct {
	Billing  billing.Store
	Projects projects.Store

	// DB is the primary handle, nil for the memory backend
	DB *sql.DB
	// Redis is nil when no Redis URL is configured
	Redis *redis.Client
	// Conns is nil for the memory backend
	Conns *postgres.ConnectionManager

	closers []func() error
}

// Close releases every connection the backend opened
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open connects the configured backend. A configured Redis URL that cannot be reached is an
// error; the cache is never silently disabled.
func Open(ctx context.Context, cfg Config, logger *observability.Logger, metrics *observability.Metrics) (*Backend, error) {
	backend := &Backend{}

	switch cfg.Type {
	case TypeMemory, "":
		store := memory.New()
		backend.Billing = store
		backend.Projects = store
		backend.closers = append(backend.closers, store.Close)

	case TypePostgres:
		conns, err := postgres.NewConnectionManager(ctx, postgres.ConnectionConfig{
			PrimaryURL:  cfg.PostgresURL,
			ReplicaURLs: cfg.PostgresReplicaURLs,
			MaxConns:    cfg.PostgresMaxConns,
			MinConns:    cfg.PostgresMinConns,
			Timeout:     cfg.PostgresTimeout,
			MaxLifetime: cfg.PostgresMaxLifetime,
			MaxIdleTime: cfg.PostgresMaxIdleTime,
		}, logger)
		if err != nil {
			return nil, err
		}
		if cfg.EnsureSchema {
			if err := postgres.EnsureSchema(ctx, conns.Primary()); err != nil {
				_ = conns.Close()
				return nil, err
			}
		}
		conns.WatchReplicas(ctx, cfg.ReplicaCheckInterval)
		store := postgres.NewStore(conns)
		backend.Billing = store
		backend.Projects = store
		backend.DB = conns.Primary()
		backend.Conns = conns
		backend.closers = append(backend.closers, store.Close)

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cache.Options{
			URL:        cfg.RedisURL,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			MaxRetries: cfg.RedisMaxRetries,
			PoolSize:   cfg.RedisPoolSize,
		})
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		backend.Redis = client
		backend.Billing = cache.New(backend.Billing, client, cfg.CacheTTL, metrics)
		backend.closers = append(backend.closers, client.Close)
	}

	return backend, nil
}
