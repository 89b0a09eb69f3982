// Package storage opens the persistence backend for the billing service.
//
// # Backends
//
// Two implementations satisfy both billing.Store and projects.Store:
//
//   - memory: a mutex-guarded in-process store for tests and local runs
//   - postgres: database/sql over lib/pq with a primary and optional read replicas
//
// When a Redis URL is configured the billing side is wrapped by cache.ProfileCache, a
// read-through cache of GetProfile that is invalidated on every successful write.
//
// # Usage
//
//	backend, err := storage.Open(ctx, storage.Config{
//		Type:        "postgres",
//		PostgresURL: "postgres://localhost/launchpad?sslmode=disable",
//		RedisURL:    "redis://localhost:6379/0",
//	}, logger, metrics)
//	if err != nil {
//		return err
//	}
//	defer backend.Close()
//
//	manager := billing.NewManager(backend.Billing, catalogs)
//	projectsSvc := projects.NewService(backend.Projects, backend.Billing, catalogs, auditLogger, runner)
//
// # Consistency
//
// Every billing mutation is a single transaction that locks the user row with FOR SHARE and
// the billing row with FOR UPDATE, and the write is additionally guarded by a version column.
// Profile reads go to the primary so a read following a mutation observes it; only aggregate
// reporting reads use replicas.
package storage
