package internal

import (
	"context"
	"time"
)

type ctxKey string

const traceIDKey ctxKey = "traceID"

// TraceID returns the request trace id set by the request id middleware.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// CheckTimeout bounds a dependency probe, defaulting to 2 seconds.
func CheckTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 2 * time.Second
	}
	return context.WithTimeout(ctx, d)
}
