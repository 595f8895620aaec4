package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/logger"
    "github.com/iliyamo/cementerio-ledger/internal/service"
)

// requestTimeout bounds every store round trip made on behalf of a request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(err error) int {
    switch {
    case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidReference):
        return http.StatusBadRequest
    case errors.Is(err, service.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrConflict):
        return http.StatusConflict
    }
    return http.StatusInternalServerError
}

// writeError renders err as {"success": false, "error": msg}.  Server side
// failures are logged with the request scoped logger.
func writeError(c echo.Context, err error) error {
    status := statusFor(err)
    if status >= http.StatusInternalServerError {
        logger.FromContext(c.Request().Context()).Error("request failed",
            zap.String("path", c.Path()), zap.Error(err))
    }
    return fail(c, status, service.Message(err))
}

func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}
