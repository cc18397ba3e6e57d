// Package middleware provides HTTP middleware for the trust badge service.
// ratelimit.go implements per-IP rate limiters: an in-memory token bucket
// for the login endpoint and a Redis-backed one for public storefront reads
// that must hold across replicas.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// rateLimitKeyPrefix namespaces Redis rate-limit counters.
const rateLimitKeyPrefix = "ratelimit:"

// visitor is the token bucket of one client IP.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns middleware that allows each client IP a burst of
// maxRequests, refilled evenly over window. State is per process, which is
// enough for the login endpoint. Returns 429 when exceeded.
func RateLimit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	var mu sync.Mutex
	visitors := make(map[string]*visitor)
	every := rate.Every(window / time.Duration(max(maxRequests, 1)))

	// Forget idle clients once their bucket has had time to refill.
	go func() {
		for range time.Tick(time.Minute) {
			mu.Lock()
			for ip, v := range visitors {
				if time.Since(v.lastSeen) > window*2 {
					delete(visitors, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			mu.Lock()
			v, ok := visitors[ip]
			if !ok {
				v = &visitor{limiter: rate.NewLimiter(every, maxRequests)}
				visitors[ip] = v
			}
			v.lastSeen = time.Now()
			allowed := v.limiter.Allow()
			mu.Unlock()

			if !allowed {
				return tooManyRequests(c)
			}
			return next(c)
		}
	}
}

// RedisRateLimit returns middleware that allows maxRequests per client IP
// per window, counted in Redis under ratelimit:<scope>:<ip>. The counter
// expires with the window. Redis failures let the request through.
func RedisRateLimit(rdb *redis.Client, scope string, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("%s%s:%s", rateLimitKeyPrefix, scope, c.RealIP())

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				slog.Warn("rate limit counter unavailable",
					slog.String("scope", scope),
					slog.Any("error", err),
				)
				return next(c)
			}
			if count == 1 {
				if err := rdb.Expire(ctx, key, window).Err(); err != nil {
					slog.Warn("setting rate limit expiry failed",
						slog.String("scope", scope),
						slog.Any("error", err),
					)
				}
			}

			remaining := int64(maxRequests) - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(maxRequests) {
				return tooManyRequests(c)
			}
			return next(c)
		}
	}
}

// tooManyRequests writes the shared 429 response body.
func tooManyRequests(c echo.Context) error {
	return c.JSON(http.StatusTooManyRequests, map[string]string{
		"error":   "Too Many Requests",
		"type":    "rate_limited",
		"message": "Rate limit exceeded. Please try again later.",
	})
}
