package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

const spanOp = "cache"

// startSpan opens a child span for a cache call when the request carries a sentry hub.
// It returns nil otherwise, and every helper below accepts a nil span.
func startSpan(ctx context.Context, backend, operation, key string) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}

	name := spanOp + "." + backend + "." + operation
	span := sentry.StartSpan(ctx, spanOp, sentry.WithDescription(name))
	span.SetData("cache.backend", backend)
	span.SetData("cache.key", key)
	return span
}

// finishSpan records whether the lookup hit and closes the span
func finishSpan(span *sentry.Span, hit bool) {
	if span == nil {
		return
	}
	span.SetData("cache.hit", hit)
	span.Status = sentry.SpanStatusOK
	span.Finish()
}
