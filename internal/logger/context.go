package logger

import (
    "context"

    "go.uber.org/zap"
)

type contextKey string

const (
    loggerKey    contextKey = "logger"
    requestIDKey contextKey = "request_id"
)

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
    return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
    if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
        return l
    }
    return zap.NewNop()
}

// WithRequestID stores the request id and a logger tagged with it.
func WithRequestID(ctx context.Context, l *zap.Logger, requestID string) (context.Context, *zap.Logger) {
    ctx = context.WithValue(ctx, requestIDKey, requestID)
    tagged := l.With(zap.String("request_id", requestID))
    return WithContext(ctx, tagged), tagged
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
    id, _ := ctx.Value(requestIDKey).(string)
    return id
}
