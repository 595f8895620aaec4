package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/logger"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = echo.HeaderXRequestID

// RequestLogger assigns every request an id (reusing a client supplied
// X-Request-ID), attaches a logger tagged with it to the request context
// and writes one access log line when the handler returns.
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
    if base == nil {
        base = zap.NewNop()
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            id := req.Header.Get(HeaderRequestID)
            if id == "" || len(id) > 64 {
                id = uuid.NewString()
            }
            c.Response().Header().Set(HeaderRequestID, id)

            ctx, l := logger.WithRequestID(req.Context(), base, id)
            c.SetRequest(req.WithContext(ctx))

            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            status := c.Response().Status
            fields := []zap.Field{
                zap.String("method", req.Method),
                zap.String("route", c.Path()),
                zap.String("uri", req.RequestURI),
                zap.Int("status", status),
                zap.Duration("latency", time.Since(start)),
                zap.String("ip", clientIP(c)),
                zap.String("subject", subject(c)),
            }
            switch {
            case status >= 500:
                l.Error("request", fields...)
            case status >= 400:
                l.Warn("request", fields...)
            default:
                l.Info("request", fields...)
            }
            return nil
        }
    }
}
