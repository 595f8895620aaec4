package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
    Ping(ctx context.Context) error
}

// Health is the liveness probe.  It never touches the store.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready returns a readiness probe that fails with 503 while the store
// cannot be pinged within two seconds.
func Ready(store Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := store.Ping(ctx); err != nil {
            return fail(c, http.StatusServiceUnavailable, "base de datos no disponible")
        }
        return c.String(http.StatusOK, "ready")
    }
}
