package obs

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores id on ctx for later log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of op when the returned func is deferred.
// Pass the address of the named error result so failures are logged too.
func Time(ctx context.Context, logger *slog.Logger, op string) func(errp *error) {
	start := time.Now()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return func(errp *error) {
		dur := time.Since(start)
		OpDuration.WithLabelValues(op).Observe(dur.Seconds())

		attrs := []any{"req_id", RequestID(ctx), "op", op, "dur_ms", dur.Milliseconds()}
		if errp != nil && *errp != nil {
			logger.ErrorContext(ctx, "operation failed", append(attrs, "err", *errp)...)
			return
		}
		logger.DebugContext(ctx, "operation done", attrs...)
	}
}
