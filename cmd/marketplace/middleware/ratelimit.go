package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/opencode-cafe/marketplace/common/ratelimit"
)

// GlobalRateLimit checks the service-wide request limit.
// Fails open on Redis errors so an unavailable limiter never takes the
// service down with it.
func GlobalRateLimit(limiter *ratelimit.Limiter, limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			result, err := limiter.CheckGlobalLimit(c.Request().Context(), limit)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error": "service is experiencing high load, please try again later",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
