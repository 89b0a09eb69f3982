package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/platinummonkey/launchpad/pkg/contextkeys"
)

// Claims identify the caller of a gateway request. The subject carries the user id.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// WithClaims stores verified claims and the caller's user id in ctx
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = contextkeys.WithClaims(ctx, claims)
	return contextkeys.WithUserID(ctx, claims.UserID)
}

// ClaimsFromContext returns the claims set by the auth middleware
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextkeys.ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}
