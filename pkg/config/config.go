package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/launchpad/pkg/auth"
	"github.com/platinummonkey/launchpad/pkg/catalog"
	"github.com/platinummonkey/launchpad/pkg/middleware"
	"github.com/platinummonkey/launchpad/pkg/observability"
	"github.com/platinummonkey/launchpad/pkg/reporting"
	"github.com/platinummonkey/launchpad/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	Auth      AuthConfig
	Billing   BillingConfig
	RateLimit RateLimitConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s liveness and readiness checks)
	HealthPort string

	CORSOrigins  []string
	MaxBodyBytes int64
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

// BillingConfig selects the plan catalog
type BillingConfig struct {
	// Catalog names a built-in catalog. Ignored when CatalogFile is set.
	Catalog     string
	CatalogFile string
	// CatalogWatch reloads CatalogFile when it changes
	CatalogWatch bool
}

// RateLimitConfig holds per-user request limits
type RateLimitConfig struct {
	Enabled bool
	// Distributed shares limits across replicas through Redis
	Distributed       bool
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
	MaxKeys           int
}

// Middleware converts the settings to the limiter configuration
func (c RateLimitConfig) Middleware() *middleware.RateLimitConfig {
	return &middleware.RateLimitConfig{
		RequestsPerWindow: c.RequestsPerWindow,
		WindowDuration:    c.Window,
		BurstSize:         c.Burst,
		MaxKeys:           c.MaxKeys,
	}
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64

	// ReportingSchedule is the cron expression of the subscription gauge refresh
	ReportingSchedule string
}

// OTel converts the settings to the exporter configuration
func (c ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.OTelEnabled,
		Endpoint:       c.OTelEndpoint,
		ServiceName:    c.OTelServiceName,
		ServiceVersion: c.OTelServiceVersion,
		Insecure:       c.OTelInsecure,
		SampleRatio:    c.OTelSampleRatio,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Auth:          loadAuthConfig(),
		Billing:       loadBillingConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("LAUNCHPAD_HOST", "0.0.0.0"),
		Port:            getEnv("LAUNCHPAD_PORT", "8080"),
		ReadTimeout:     getEnvDuration("LAUNCHPAD_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("LAUNCHPAD_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("LAUNCHPAD_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("LAUNCHPAD_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("LAUNCHPAD_HEALTH_PORT", "9090"),
		CORSOrigins:     getEnvList("LAUNCHPAD_CORS_ORIGINS"),
		MaxBodyBytes:    getEnvInt64("LAUNCHPAD_MAX_BODY_BYTES", 1<<20),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if storageType := getEnv("LAUNCHPAD_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = storageType
	}

	// PostgreSQL config
	if pgURL := getEnv("LAUNCHPAD_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
		if getEnv("LAUNCHPAD_STORAGE_TYPE", "") == "" {
			cfg.Type = storage.TypePostgres
		}
	}
	if replicaURLs := getEnvList("LAUNCHPAD_POSTGRES_REPLICA_URLS"); len(replicaURLs) > 0 {
		cfg.PostgresReplicaURLs = replicaURLs
	}
	if maxConns := getEnvInt("LAUNCHPAD_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("LAUNCHPAD_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("LAUNCHPAD_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}
	cfg.ReplicaCheckInterval = getEnvDuration("LAUNCHPAD_POSTGRES_REPLICA_CHECK_INTERVAL", cfg.ReplicaCheckInterval)
	cfg.EnsureSchema = getEnvBool("LAUNCHPAD_POSTGRES_ENSURE_SCHEMA", cfg.EnsureSchema)

	// Redis config
	if redisURL := getEnv("LAUNCHPAD_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("LAUNCHPAD_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("LAUNCHPAD_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("LAUNCHPAD_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("LAUNCHPAD_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	// Cache config
	if ttl := getEnvDuration("LAUNCHPAD_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL = ttl
	}

	return cfg
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: getEnv("LAUNCHPAD_JWT_SECRET", ""),
		JWTIssuer: getEnv("LAUNCHPAD_JWT_ISSUER", auth.DefaultIssuer),
		TokenTTL:  getEnvDuration("LAUNCHPAD_TOKEN_TTL", auth.DefaultTTL),
	}
}

func loadBillingConfig() BillingConfig {
	return BillingConfig{
		Catalog:      getEnv("LAUNCHPAD_CATALOG", catalog.BuilderCatalog),
		CatalogFile:  getEnv("LAUNCHPAD_CATALOG_FILE", ""),
		CatalogWatch: getEnvBool("LAUNCHPAD_CATALOG_WATCH", false),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	defaults := middleware.DefaultRateLimitConfig()
	return RateLimitConfig{
		Enabled:           getEnvBool("LAUNCHPAD_RATE_LIMIT_ENABLED", true),
		Distributed:       getEnvBool("LAUNCHPAD_RATE_LIMIT_DISTRIBUTED", false),
		RequestsPerWindow: getEnvInt("LAUNCHPAD_RATE_LIMIT_REQUESTS", defaults.RequestsPerWindow),
		Window:            getEnvDuration("LAUNCHPAD_RATE_LIMIT_WINDOW", defaults.WindowDuration),
		Burst:             getEnvInt("LAUNCHPAD_RATE_LIMIT_BURST", defaults.BurstSize),
		MaxKeys:           getEnvInt("LAUNCHPAD_RATE_LIMIT_MAX_KEYS", defaults.MaxKeys),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	cfg := ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("LAUNCHPAD_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("LAUNCHPAD_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("LAUNCHPAD_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("LAUNCHPAD_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("LAUNCHPAD_OTEL_SERVICE_NAME", "launchpad"),
		OTelServiceVersion: getEnv("LAUNCHPAD_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("LAUNCHPAD_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("LAUNCHPAD_OTEL_SAMPLE_RATIO", 1),
		ReportingSchedule:  getEnv("LAUNCHPAD_REPORTING_SCHEDULE", reporting.DefaultSchedule),
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
	}

	// Validate storage config based on type
	switch c.Storage.Type {
	case storage.TypeMemory:
	case storage.TypePostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory or postgres)", c.Storage.Type)
	}

	if len(c.Auth.JWTSecret) < auth.MinSecretLength {
		return fmt.Errorf("LAUNCHPAD_JWT_SECRET must be at least %d bytes", auth.MinSecretLength)
	}

	if c.Billing.CatalogFile == "" {
		if _, err := catalog.ByName(c.Billing.Catalog); err != nil {
			return err
		}
		if c.Billing.CatalogWatch {
			return fmt.Errorf("catalog watch requires a catalog file")
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit requests and window must be positive")
		}
		if c.RateLimit.Distributed && c.Storage.RedisURL == "" {
			return fmt.Errorf("distributed rate limiting requires a redis URL")
		}
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}
	if _, err := cron.ParseStandard(c.Observability.ReportingSchedule); err != nil {
		return fmt.Errorf("invalid reporting schedule: %w", err)
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
