package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/launchpad/pkg/contextkeys"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(config *RateLimitConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(config)
	limiter.now = clock.Now
	return limiter, clock
}

func TestRateLimiter_Allow(t *testing.T) {
	config := &RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Second, BurstSize: 2}
	limiter, clock := newTestLimiter(config)
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 20; i++ {
		d, err := limiter.Allow(ctx, "user:1")
		require.NoError(t, err)
		if d.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 12, allowed)

	d, err := limiter.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 100*time.Millisecond, d.RetryAfter)

	clock.Advance(100 * time.Millisecond)
	d, err = limiter.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "one token refilled")

	d, err = limiter.Allow(ctx, "user:2")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "buckets are per key")
	assert.Equal(t, 11, d.Remaining)
}

func TestRateLimiter_RefillCapsAtCapacity(t *testing.T) {
	limiter, clock := newTestLimiter(&RateLimitConfig{RequestsPerWindow: 5, WindowDuration: time.Minute, BurstSize: 1})
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	clock.Advance(30 * time.Second)

	d, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 5, d.Remaining)
}

func TestRateLimiter_BoundedKeys(t *testing.T) {
	limiter, _ := newTestLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute, MaxKeys: 3})
	for i := 0; i < 10; i++ {
		_, err := limiter.Allow(context.Background(), fmt.Sprintf("user:%d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, limiter.Len())
}

func TestRateLimit_Middleware(t *testing.T) {
	limiter, _ := newTestLimiter(&RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute})
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(userID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/user/billing/credits", nil)
		req = req.WithContext(contextkeys.WithUserID(req.Context(), userID))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, request(1).Code)
	w := request(1)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = request(1)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"kind":"rate_limited"`)

	assert.Equal(t, http.StatusOK, request(2).Code)
}

func TestRateLimit_AnonymousKeyedByAddress(t *testing.T) {
	limiter, _ := newTestLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute})
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	serve := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/billing/plans", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve("10.0.0.1:1234", "1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1:5678", "2.2.2.2"), "forwarding headers are not trusted")
	assert.Equal(t, http.StatusOK, serve("10.0.0.2:1234", ""))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	handler := RateLimit(failingLimiter{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}
