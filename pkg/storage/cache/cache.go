// Package cache decorates a billing.Store with a Redis read-through cache of user profiles.
//
// Only GetProfile is cached. Every write path invalidates the user's key after it commits, so a
// read following a successful mutation always misses and reloads from the store. Invalidation
// also bumps a per-user generation counter; a miss records the generation before loading and
// only fills the key if it is unchanged, so a load that raced a write is never cached.
// Redis failures never fail a request: reads fall through to the store and failed
// invalidations are logged.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/observability"
)

const (
	// DefaultTTL bounds staleness if an invalidation is lost
	DefaultTTL = 5 * time.Minute

	// generations outlive any profile entry and any in-flight load
	generationTTL = 24 * time.Hour

	cacheName = "profile"
)

var errStaleFill = errors.New("profile changed during load")

// Options configures the Redis client
type Options struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
}

// NewClient creates a Redis client from opts and verifies connectivity
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if opts.Password != "" {
		redisOpts.Password = opts.Password
	}
	if opts.DB > 0 {
		redisOpts.DB = opts.DB
	}
	if opts.MaxRetries > 0 {
		redisOpts.MaxRetries = opts.MaxRetries
	}
	if opts.PoolSize > 0 {
		redisOpts.PoolSize = opts.PoolSize
	}
	redisOpts.DialTimeout = 5 * time.Second
	redisOpts.ReadTimeout = 3 * time.Second
	redisOpts.WriteTimeout = 3 * time.Second
	redisOpts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// ProfileCache is a billing.Store that caches GetProfile in Redis
type ProfileCache struct {
	billing.Store
	client  *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
}

// New wraps store. ttl <= 0 uses DefaultTTL; metrics may be nil.
func New(store billing.Store, client *redis.Client, ttl time.Duration, metrics *observability.Metrics) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProfileCache{Store: store, client: client, ttl: ttl, metrics: metrics}
}

func key(userID int64) string {
	return fmt.Sprintf("launchpad:profile:%d", userID)
}

func generationKey(userID int64) string {
	return fmt.Sprintf("launchpad:profile:gen:%d", userID)
}

// GetProfile returns the cached profile or loads and caches it
func (c *ProfileCache) GetProfile(ctx context.Context, userID int64) (*billing.Profile, error) {
	logger := observability.FromContext(ctx).WithField("cache", cacheName)

	data, err := c.client.Get(ctx, key(userID)).Bytes()
	switch {
	case err == nil:
		var profile billing.Profile
		if err := json.Unmarshal(data, &profile); err == nil {
			c.hit()
			return &profile, nil
		}
		logger.Warn("Discarding corrupt cache entry")
		c.client.Del(ctx, key(userID))
	case err != redis.Nil:
		logger.WithError(err).Warn("Cache read failed")
	}
	c.miss()

	gen, genErr := c.client.Get(ctx, generationKey(userID)).Int64()
	if genErr != nil && genErr != redis.Nil {
		logger.WithError(genErr).Warn("Cache generation read failed")
	}

	profile, err := c.Store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if genErr == nil || genErr == redis.Nil {
		c.fill(ctx, logger, userID, gen, profile)
	}
	return profile, nil
}

// fill caches profile unless the user's generation moved past gen while it was loading
func (c *ProfileCache) fill(ctx context.Context, logger *observability.Logger, userID, gen int64, profile *billing.Profile) {
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey(userID)).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(userID), data, c.ttl)
			return nil
		})
		return err
	}, generationKey(userID))

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		logger.Debug("Skipping stale cache fill")
	default:
		logger.WithError(err).Warn("Cache write failed")
	}
}

// Mutate delegates to the store and invalidates the profile on success
func (c *ProfileCache) Mutate(ctx context.Context, userID int64, opts billing.MutateOptions, fn billing.MutateFunc) (*billing.BillingRecord, error) {
	rec, err := c.Store.Mutate(ctx, userID, opts, fn)
	if err != nil {
		return nil, err
	}
	c.Invalidate(ctx, userID)
	return rec, nil
}

// DeleteAccount delegates to the store and invalidates the profile on success
func (c *ProfileCache) DeleteAccount(ctx context.Context, userID int64) error {
	if err := c.Store.DeleteAccount(ctx, userID); err != nil {
		return err
	}
	c.Invalidate(ctx, userID)
	return nil
}

// Invalidate removes the user's cached profile and advances their generation so loads that
// started earlier are not cached. It runs even if ctx was cancelled after the store committed.
func (c *ProfileCache) Invalidate(ctx context.Context, userID int64) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	_, err := c.client.TxPipelined(delCtx, func(pipe redis.Pipeliner) error {
		pipe.Incr(delCtx, generationKey(userID))
		pipe.Expire(delCtx, generationKey(userID), generationTTL)
		pipe.Del(delCtx, key(userID))
		return nil
	})
	if err != nil {
		observability.FromContext(ctx).WithError(err).WithField("user_id", userID).Warn("Cache invalidation failed")
	}
}

func (c *ProfileCache) hit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(cacheName).Inc()
	}
}

func (c *ProfileCache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(cacheName).Inc()
	}
}
