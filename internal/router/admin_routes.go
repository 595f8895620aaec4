package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cementerio-ledger/internal/handler"
)

// RegisterAdmin registers the administrator endpoints.  Every route needs
// a bearer token with role ADMIN.
func RegisterAdmin(e *echo.Echo, r *handler.ReservationHandler, p *handler.PaymentHandler, m *handler.MessageHandler, jwtSecret string) {
    mw := adminOnly(jwtSecret)

    e.PUT("/api/reservas/:id/estado", r.UpdateStatus, mw...)
    e.POST("/api/pagos/reserva/:id/recalcular", p.Rebuild, mw...)

    e.GET("/api/mensajes", m.List, mw...)
    e.PUT("/api/mensajes/:id/leido", m.MarkRead, mw...)
}
