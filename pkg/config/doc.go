// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from LAUNCHPAD_* environment variables with
// sensible defaults for everything except the token secret.
//
// # Configuration Structure
//
// Server settings:
//
//	LAUNCHPAD_HOST="0.0.0.0"
//	LAUNCHPAD_PORT="8080"
//	LAUNCHPAD_HEALTH_PORT="9090"
//	LAUNCHPAD_CORS_ORIGINS="https://app.example.com"
//	LAUNCHPAD_MAX_BODY_BYTES="1048576"
//
// Storage settings:
//
//	LAUNCHPAD_STORAGE_TYPE="postgres"  # memory, postgres
//	LAUNCHPAD_POSTGRES_URL="postgres://localhost/launchpad"
//	LAUNCHPAD_POSTGRES_REPLICA_URLS="postgres://replica-1/launchpad,postgres://replica-2/launchpad"
//	LAUNCHPAD_POSTGRES_REPLICA_CHECK_INTERVAL="30s"  # prune unreachable replicas
//	LAUNCHPAD_REDIS_URL="redis://localhost:6379/0"
//	LAUNCHPAD_CACHE_TTL="5m"
//
// Auth and billing settings:
//
//	LAUNCHPAD_JWT_SECRET="..."  # required, at least 32 bytes
//	LAUNCHPAD_JWT_ISSUER="launchpad"
//	LAUNCHPAD_CATALOG="builder"  # builder, legacy
//	LAUNCHPAD_CATALOG_FILE="/etc/launchpad/catalog.yaml"
//	LAUNCHPAD_CATALOG_WATCH="true"
//
// Rate limiting:
//
//	LAUNCHPAD_RATE_LIMIT_REQUESTS="120"
//	LAUNCHPAD_RATE_LIMIT_WINDOW="1m"
//	LAUNCHPAD_RATE_LIMIT_DISTRIBUTED="true"  # requires LAUNCHPAD_REDIS_URL
//
// Observability settings:
//
//	LAUNCHPAD_LOG_LEVEL="info"  # debug, info, warn, error
//	LAUNCHPAD_METRICS_ENABLED="true"
//	LAUNCHPAD_OTEL_ENABLED="true"
//	LAUNCHPAD_OTEL_ENDPOINT="otel-collector:4317"
//	LAUNCHPAD_REPORTING_SCHEDULE="*/5 * * * *"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/observability: Uses observability configuration
//   - pkg/middleware: Uses rate limit configuration
package config
