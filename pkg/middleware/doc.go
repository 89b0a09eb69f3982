// Package middleware provides the request gateway and per-user rate limiting.
//
// AuthMiddleware verifies "Authorization: Bearer <jwt>" with an auth.TokenManager and stores
// the claims and user id in the request context; requests without a valid token get 401.
//
//	gateway := middleware.NewAuthMiddleware(tokens, false)
//	api.Use(gateway.Handler, middleware.RateLimit(limiter))
//
// RateLimit keys requests by authenticated user (client address otherwise) and answers 429 with
// Retry-After once the Limiter refuses. Two limiters are provided: RateLimiter keeps token
// buckets in a bounded expiring LRU for single instances, DistributedRateLimiter counts fixed
// windows in Redis so replicas share one budget.
package middleware
