package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/salgaderia/pos/internal/config"
)

// NewRateLimit applies a fixed-window per-IP-and-route limit backed by
// Redis INCR. It protects the admission pipeline from a runaway client;
// with a nil client or disabled config it is a pass-through, keeping order
// entry available when Redis is down.
func NewRateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			bucket := time.Now().Unix() / int64(window.Seconds())
			key := fmt.Sprintf("%s:%s:%s:%d", cfg.Prefix, c.RealIP(), c.Path(), bucket)

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// Redis hiccup: let the request through rather than block sales.
				return next(c)
			}
			if count == 1 {
				_ = rdb.Expire(ctx, key, window).Err()
			}
			if count > int64(cfg.Limit) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
