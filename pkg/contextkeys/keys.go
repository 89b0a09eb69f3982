// Package contextkeys provides centralized context key definitions
//
// All context keys used across the service are defined here so that producers and consumers
// agree on names and value types.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/launchpad/pkg/contextkeys"
//	ctx = contextkeys.WithUserID(ctx, claims.UserID)
//	userID, ok := contextkeys.GetUserID(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// ClaimsKey contains the verified token claims
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Used by: Handlers that need the caller's email or token metadata
	// Type: *auth.Claims
	ClaimsKey Key = "claims"

	// UserIDKey contains the authenticated user ID
	// Set by: middleware.AuthMiddleware after token verification
	// Used by: Every /api/user handler, rate limiter, logger, audit trail
	// Type: int64
	UserIDKey Key = "user_id"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, audit trail, error responses
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Used by: Handlers and background tasks that need request-scoped logging
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// WithClaims adds verified token claims to the context
func WithClaims(ctx context.Context, claims interface{}) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// WithUserID adds the authenticated user ID to the context
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID retrieves the authenticated user ID from context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}
