package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// traceOp opens a db.cache span for op on key when ctx carries a sentry hub.
// finish closes it; hit is only recorded for reads.
func traceOp(ctx context.Context, op, key string) (finish func(hit bool)) {
	if sentry.GetHubFromContext(ctx) == nil {
		return func(bool) {}
	}

	span := sentry.StartSpan(ctx, "cache.inmemory."+op)
	span.Op = "db.cache"
	span.Description = op + " " + key
	span.SetData("cache.key", key)

	return func(hit bool) {
		if op == opGet {
			span.SetData("cache.hit", hit)
		}
		span.Status = sentry.SpanStatusOK
		span.Finish()
	}
}
