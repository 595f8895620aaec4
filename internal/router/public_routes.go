package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cementerio-ledger/internal/handler"
)

// RegisterPublic registers the read-only catalog and lookup endpoints.
// Only the price list and vault availability go through cache: they are
// reference data, while balances must always be read fresh.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
    var cached []echo.MiddlewareFunc
    if cache != nil {
        cached = append(cached, cache)
    }
    e.GET("/api/precios", p.ListPrices, cached...)
    e.GET("/api/bovedas/disponibles", p.ListVaults, cached...)

    e.GET("/api/familiares/cedula/:cedula", p.FamilyByCedula)
    e.GET("/api/familiares/buscar", p.FamilyByName)
    e.GET("/api/deudas/cedula/:cedula", p.DebtByCedula)
}
