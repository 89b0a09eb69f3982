// Package auth issues and verifies the HS256 JSON Web Tokens that authenticate gateway requests.
//
// Identity itself is established elsewhere; this package only trusts tokens signed with the
// shared secret. A token carries the caller's user id (also rendered as "sub") and email.
//
//	tm, err := auth.NewTokenManager(secret, "launchpad")
//	token, err := tm.Issue(42, "ada@example.com")
//	claims, err := tm.Validate(token)
//
// Verification pins the signing method to HS256, requires an expiry, checks the issuer and
// allows 30 seconds of clock skew. Every failure wraps ErrInvalidToken.
package auth
