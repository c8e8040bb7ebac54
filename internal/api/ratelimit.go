package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/liventcord/LiventCord-sub002/internal/auth"
)

// RateLimiter counts requests in fixed windows. It is satisfied by
// *redis.Client.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, int64, error)
}

// RateLimitMiddleware limits requests per user when authenticated and per IP
// otherwise, and sets the standard rate limit headers.
func RateLimitMiddleware(limiter RateLimiter, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var key string
			if uid := auth.GetUserID(c); uid != "" {
				key = fmt.Sprintf("rl:user:%s:%s", uid, c.Path())
			} else {
				key = fmt.Sprintf("rl:ip:%s:%s", c.RealIP(), c.Path())
			}

			allowed, count, ttlMs, err := limiter.CheckRateLimit(c.Request().Context(), key, limit, window)
			if err != nil {
				// Fail open while redis is unavailable.
				return next(c)
			}

			remaining := max(int64(limit)-count, 0)
			resetAt := time.Now().Add(time.Duration(ttlMs) * time.Millisecond).Unix()

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))

			if !allowed {
				retryAfterSec := (ttlMs + 999) / 1000
				c.Response().Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
				return Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, please try again later")
			}

			return next(c)
		}
	}
}
