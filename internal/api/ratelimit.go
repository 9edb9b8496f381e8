package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/redis"
)

// rateLimitBucket names the counter a request is charged to: the signed-in
// user when there is one, the client address otherwise. Every route guarded
// by the same scope shares the counter.
func rateLimitBucket(c echo.Context, scope string) string {
	if _, ok := c.Get("user_id").(int64); ok {
		return "user:" + strconv.FormatInt(auth.GetUserID(c), 10) + ":" + scope
	}
	return "ip:" + c.RealIP() + ":" + scope
}

// RateLimitMiddleware allows limit requests per bucket per window, counted in
// Redis. When Redis is unreachable requests pass unmetered.
func RateLimitMiddleware(redisClient *redis.Client, scope string, limit int, window time.Duration) echo.MiddlewareFunc {
	limitHeader := strconv.Itoa(limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			bucket := rateLimitBucket(c, scope)
			allowed, count, ttlMs, err := redisClient.CheckRateLimit(c.Request().Context(), bucket, limit, window)
			if err != nil {
				slog.Warn("rate limit unavailable, allowing request", "bucket", bucket, "error", err)
				return next(c)
			}

			ttl := time.Duration(ttlMs) * time.Millisecond
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(max(int64(limit)-count, 0), 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

			if allowed {
				return next(c)
			}
			// Whole seconds, rounded up.
			h.Set("Retry-After", strconv.FormatInt(int64((ttl+time.Second-1)/time.Second), 10))
			return Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, please try again later")
		}
	}
}
