package middleware

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/config"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/gin-gonic/gin"
	goCache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdleExpiry = 10 * time.Minute

// RateLimitMiddleware applies a token bucket per client IP. Buckets of idle clients
// expire so the map does not grow without bound.
func RateLimitMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerSecond <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	limit := rate.Limit(cfg.RateLimit.RequestsPerSecond)
	burst := max(cfg.RateLimit.Burst, 1)
	limiters := goCache.New(limiterIdleExpiry, limiterIdleExpiry)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		var limiter *rate.Limiter
		if v, ok := limiters.Get(ip); ok {
			limiter = v.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(limit, burst)
			// Add fails when a concurrent request stored one first, use that one
			if err := limiters.Add(ip, limiter, goCache.DefaultExpiration); err != nil {
				if v, ok := limiters.Get(ip); ok {
					limiter = v.(*rate.Limiter)
				}
			}
		}
		// sliding expiry
		limiters.SetDefault(ip, limiter)

		if !limiter.Allow() {
			c.Error(ierr.NewError("rate limit exceeded").
				WithHint("Too many requests, please slow down").
				WithReportableDetails(map[string]any{"client_ip": ip}).
				Mark(ierr.ErrTooManyRequests))
			c.Abort()
			return
		}
		c.Next()
	}
}
