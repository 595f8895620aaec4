package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cementerio-ledger/internal/handler"
)

// RegisterLedger registers the client, reservation and payment endpoints
// used by the mobile app and the web site.  They are unauthenticated.
func RegisterLedger(e *echo.Echo, r *handler.ReservationHandler, p *handler.PaymentHandler, m *handler.MessageHandler) {
    g := e.Group("/api")

    g.POST("/clientes", r.CreateClient)
    g.POST("/reservas", r.CreateReservation)
    g.GET("/reservas/cliente/:cedula", r.ListByClient)

    g.POST("/pagos", p.Record)
    g.GET("/pagos/cliente/:cedula", p.ByClient)
    g.GET("/pagos/reserva/:id", p.History)
    g.GET("/pagos/estado/:id", p.Status)

    g.POST("/mensajes", m.Submit)
}
