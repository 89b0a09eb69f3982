package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/platinummonkey/launchpad/pkg/observability"
)

const (
	defaultConnectTimeout = 10 * time.Second
	// DefaultReplicaCheckInterval is how often WatchReplicas pings replicas
	DefaultReplicaCheckInterval = 30 * time.Second
)

// ConnectionConfig holds database connection configuration
type ConnectionConfig struct {
	PrimaryURL  string
	ReplicaURLs []string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// ConnectionManager routes writes and read-your-writes queries to the primary and
// aggregate reports to replicas. The replica set can shrink at runtime; it never grows.
type ConnectionManager struct {
	primary  *sql.DB
	replicas atomic.Pointer[[]*sql.DB]
	next     atomic.Uint32
	logger   *observability.Logger
}

// NewConnectionManager opens the primary and any replicas. Replicas that cannot be reached are
// logged and skipped; an unreachable primary is an error.
func NewConnectionManager(ctx context.Context, cfg ConnectionConfig, logger *observability.Logger) (*ConnectionManager, error) {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultConnectTimeout
	}
	logger = logger.WithField("component", "postgres")

	primary, err := openPool(ctx, cfg, cfg.PrimaryURL, cfg.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to primary: %w", err)
	}

	var replicas []*sql.DB
	for i, url := range cfg.ReplicaURLs {
		replica, err := openPool(ctx, cfg, url, replicaMaxConns(cfg.MaxConns))
		if err != nil {
			logger.WithError(err).WithField("replica", i).Warn("Skipping unreachable replica")
			continue
		}
		replicas = append(replicas, replica)
	}

	cm := newManager(primary, replicas, logger)
	logger.WithField("replicas", len(replicas)).Info("Connected to Postgres")
	return cm, nil
}

// NewFromDB wraps an existing handle as a primary-only manager
func NewFromDB(db *sql.DB) *ConnectionManager {
	return newManager(db, nil, observability.NewLogger(observability.InfoLevel, nil))
}

func newManager(primary *sql.DB, replicas []*sql.DB, logger *observability.Logger) *ConnectionManager {
	cm := &ConnectionManager{primary: primary, logger: logger}
	cm.replicas.Store(&replicas)
	return cm
}

func openPool(ctx context.Context, cfg ConnectionConfig, url string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// replicas get half the primary's pool, with a floor of 2
func replicaMaxConns(primary int) int {
	return max(primary/2, 2)
}

// Primary returns the handle for writes and profile reads
func (cm *ConnectionManager) Primary() *sql.DB {
	return cm.primary
}

func (cm *ConnectionManager) replicaSet() []*sql.DB {
	return *cm.replicas.Load()
}

// Replica returns the next replica in round-robin order, or the primary when none are left
func (cm *ConnectionManager) Replica() *sql.DB {
	replicas := cm.replicaSet()
	if len(replicas) == 0 {
		return cm.primary
	}
	n := cm.next.Add(1)
	return replicas[int(n%uint32(len(replicas)))]
}

// HealthCheck fails when the primary is down or every remaining replica is down
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.primary.PingContext(ctx); err != nil {
		return fmt.Errorf("primary unhealthy: %w", err)
	}

	replicas := cm.replicaSet()
	var down []string
	for i, replica := range replicas {
		if err := replica.PingContext(ctx); err != nil {
			down = append(down, fmt.Sprintf("replica-%d", i))
		}
	}
	if len(replicas) > 0 && len(down) == len(replicas) {
		return fmt.Errorf("all replicas unhealthy: %s", strings.Join(down, ", "))
	}
	return nil
}

// RemoveUnhealthyReplicas closes and drops replicas that fail a ping
func (cm *ConnectionManager) RemoveUnhealthyReplicas(ctx context.Context) int {
	current := cm.replicaSet()
	healthy := make([]*sql.DB, 0, len(current))
	for _, replica := range current {
		if err := replica.PingContext(ctx); err != nil {
			_ = replica.Close()
			continue
		}
		healthy = append(healthy, replica)
	}
	cm.replicas.Store(&healthy)
	return len(current) - len(healthy)
}

// WatchReplicas prunes unhealthy replicas every interval until ctx is done.
// It returns immediately when no replicas are configured.
func (cm *ConnectionManager) WatchReplicas(ctx context.Context, interval time.Duration) {
	if len(cm.replicaSet()) == 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultReplicaCheckInterval
	}

	go func() {
		defer observability.RecoverPanic(cm.logger, "replica watch")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				removed := cm.RemoveUnhealthyReplicas(checkCtx)
				cancel()
				if removed > 0 {
					cm.logger.WithFields(map[string]interface{}{
						"removed":   removed,
						"remaining": len(cm.replicaSet()),
					}).Warn("Dropped unhealthy replicas")
				}
			}
		}
	}()
}

// RegisterMetrics exports pool statistics for the primary and the replicas opened at startup
func (cm *ConnectionManager) RegisterMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(collectors.NewDBStatsCollector(cm.primary, "primary")); err != nil {
		return err
	}
	for i, replica := range cm.replicaSet() {
		if err := reg.Register(collectors.NewDBStatsCollector(replica, fmt.Sprintf("replica-%d", i))); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the primary and every remaining replica
func (cm *ConnectionManager) Close() error {
	var errs []error
	if err := cm.primary.Close(); err != nil {
		errs = append(errs, fmt.Errorf("primary close error: %w", err))
	}

	var none []*sql.DB
	for i, replica := range *cm.replicas.Swap(&none) {
		if err := replica.Close(); err != nil {
			errs = append(errs, fmt.Errorf("replica-%d close error: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// ParseReplicaURLs splits a comma-separated URL list, dropping blanks
func ParseReplicaURLs(s string) []string {
	if s == "" {
		return nil
	}
	urls := []string{}
	for _, part := range strings.Split(s, ",") {
		if url := strings.TrimSpace(part); url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}
