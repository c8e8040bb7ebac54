package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type fakeLimiter struct {
	keys    []string
	allowed bool
	count   int64
	ttlMs   int64
	err     error
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, int64, int64, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.count, f.ttlMs, f.err
}

func okHandler(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*called = true
		return c.String(http.StatusOK, "ok")
	}
}

func TestRateLimit_Headers(t *testing.T) {
	tests := []struct {
		name       string
		limiter    *fakeLimiter
		status     int
		remaining  string
		retryAfter string
	}{
		{"allowed", &fakeLimiter{allowed: true, count: 1, ttlMs: 60000}, http.StatusOK, "4", ""},
		{"exceeded", &fakeLimiter{allowed: false, count: 6, ttlMs: 1500}, http.StatusTooManyRequests, "0", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			c, rec := newTestContext(http.MethodGet, "/api/test", nil)

			if err := RateLimitMiddleware(tt.limiter, 5, time.Minute)(okHandler(&called))(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if called != (tt.status == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
			if got := rec.Header().Get("X-RateLimit-Limit"); got != "5" {
				t.Errorf("X-RateLimit-Limit = %q", got)
			}
			if got := rec.Header().Get("X-RateLimit-Remaining"); got != tt.remaining {
				t.Errorf("X-RateLimit-Remaining = %q, want %q", got, tt.remaining)
			}
			if rec.Header().Get("X-RateLimit-Reset") == "" {
				t.Error("expected X-RateLimit-Reset")
			}
			if got := rec.Header().Get("Retry-After"); got != tt.retryAfter {
				t.Errorf("Retry-After = %q, want %q", got, tt.retryAfter)
			}
			if tt.status == http.StatusTooManyRequests {
				if got := decodeError(t, rec.Body.Bytes()); got.Code != "RATE_LIMITED" {
					t.Errorf("expected RATE_LIMITED, got %q", got.Code)
				}
			}
		})
	}
}

func TestRateLimit_Keys(t *testing.T) {
	limiter := &fakeLimiter{allowed: true}
	mw := RateLimitMiddleware(limiter, 5, time.Minute)
	called := false

	c, _ := newTestContext(http.MethodPost, "/api/channels/x/read", nil)
	c.SetPath("/api/channels/:channelId/read")
	setAuthUser(c, testUserID)
	mw(okHandler(&called))(c)

	c, _ = newTestContext(http.MethodPost, "/api/v1/metadata", nil)
	c.SetPath("/api/v1/metadata")
	c.Request().RemoteAddr = "203.0.113.7:5555"
	mw(okHandler(&called))(c)

	want := []string{
		"rl:user:" + testUserID + ":/api/channels/:channelId/read",
		"rl:ip:203.0.113.7:/api/v1/metadata",
	}
	if len(limiter.keys) != len(want) {
		t.Fatalf("expected %d checks, got %v", len(want), limiter.keys)
	}
	for i := range want {
		if limiter.keys[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, limiter.keys[i], want[i])
		}
	}
}

func TestRateLimit_FailOpen(t *testing.T) {
	called := false
	c, rec := newTestContext(http.MethodGet, "/api/test", nil)

	mw := RateLimitMiddleware(&fakeLimiter{err: errors.New("redis down")}, 1, time.Minute)
	if err := mw(okHandler(&called))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected the request through while the limiter fails, got %d", rec.Code)
	}
}

func TestRateLimit_PerUserWithRedis(t *testing.T) {
	mw := RateLimitMiddleware(newTestRedis(t), 1, time.Minute)
	called := false

	statusFor := func(userID string) int {
		c, rec := newTestContext(http.MethodGet, "/api/test", nil)
		setAuthUser(c, userID)
		if err := mw(okHandler(&called))(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return rec.Code
	}

	if got := statusFor(testUserID); got != http.StatusOK {
		t.Fatalf("first request: %d", got)
	}
	if got := statusFor(testUserID); got != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", got)
	}
	if got := statusFor(testFriendID); got != http.StatusOK {
		t.Fatalf("other user: %d", got)
	}
}
