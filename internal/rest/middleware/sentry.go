package middleware

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// SentryMiddleware returns a middleware that captures panics and performance data.
// Each request gets its own hub tagged with the request id, sentrygin picks it up from the context.
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	handler := sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		hub := sentry.CurrentHub().Clone()
		if requestID := types.GetRequestID(ctx); requestID != "" {
			hub.Scope().SetTag("request_id", requestID)
		}
		c.Request = c.Request.WithContext(sentry.SetHubOnContext(ctx, hub))
		handler(c)
	}
}
