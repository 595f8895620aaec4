package router // package router wires handlers and middleware onto an Echo instance

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/handler"
    "github.com/iliyamo/cementerio-ledger/internal/middleware"
    "github.com/iliyamo/cementerio-ledger/internal/utils"
)

// Deps is everything New needs.  RateLimit and Cache may be nil, in which
// case requests are neither throttled nor cached.
type Deps struct {
    Store        handler.Pinger
    Public       *handler.PublicHandler
    Reservations *handler.ReservationHandler
    Payments     *handler.PaymentHandler
    Messages     *handler.MessageHandler
    Auth         *handler.AuthHandler
    JWTSecret    string
    Logger       *zap.Logger
    RateLimit    echo.MiddlewareFunc
    Cache        echo.MiddlewareFunc
}

// New builds the Echo instance serving the whole API.
func New(d Deps) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.Validator = handler.NewRequestValidator()

    e.Use(echomw.Recover())
    e.Use(middleware.RequestLogger(d.Logger))
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins: []string{"*"},
        AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, middleware.HeaderRequestID},
    }))
    if d.RateLimit != nil {
        e.Use(d.RateLimit)
    }

    RegisterRoutes(e, d.Store)
    RegisterPublic(e, d.Public, d.Cache)
    RegisterLedger(e, d.Reservations, d.Payments, d.Messages)
    RegisterAuth(e, d.Auth, d.JWTSecret)
    RegisterAdmin(e, d.Reservations, d.Payments, d.Messages, d.JWTSecret)
    return e
}

// RegisterRoutes registers the probes.  /healthz is liveness only;
// /readyz also pings the store.
func RegisterRoutes(e *echo.Echo, store handler.Pinger) {
    e.GET("/healthz", handler.Health)
    if store != nil {
        e.GET("/readyz", handler.Ready(store))
    }
}

// adminOnly is the middleware chain for administrator routes.  It is
// attached per route because admin and public endpoints share /api.
func adminOnly(jwtSecret string) []echo.MiddlewareFunc {
    return []echo.MiddlewareFunc{
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(utils.RoleAdmin),
    }
}

// RegisterAuth registers the admin login and the token check endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    e.POST("/api/admin/login", a.Login)
    e.GET("/api/admin/me", a.Me, adminOnly(jwtSecret)...)
}
