package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cementerio-ledger/internal/model"
    "github.com/iliyamo/cementerio-ledger/internal/service"
)

// PublicHandler serves the read-only catalog and lookup endpoints used by
// the public site and the chat assistant.  None of them require a token.
type PublicHandler struct {
    Catalog *service.Catalog
    Queries *service.Queries
}

// NewPublicHandler panics if a dependency is nil.
func NewPublicHandler(catalog *service.Catalog, queries *service.Queries) *PublicHandler {
    if catalog == nil || queries == nil {
        panic("nil service passed to NewPublicHandler")
    }
    return &PublicHandler{Catalog: catalog, Queries: queries}
}

type priceView struct {
    ID        uint64          `json:"id"`
    Sector    string          `json:"sector"`
    UnitPrice model.Money `json:"precio"`
    Modality  string          `json:"modalidad"`
}

// ListPrices handles GET /api/precios.
func (h *PublicHandler) ListPrices(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    prices, err := h.Catalog.ListPrices(ctx)
    if err != nil {
        return writeError(c, err)
    }
    out := make([]priceView, 0, len(prices))
    for _, p := range prices {
        out = append(out, priceView{
            ID:        p.ID,
            Sector:    p.SectorName,
            UnitPrice: model.Cents(p.UnitPrice),
            Modality:  h.Catalog.Modality(p),
        })
    }
    return c.JSON(http.StatusOK, out)
}

// ListVaults handles GET /api/bovedas/disponibles.
func (h *PublicHandler) ListVaults(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    out, err := h.Queries.ListAvailableVaults(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// FamilyByCedula handles GET /api/familiares/cedula/:cedula.  No match is
// a 200 with encontrado=false.
func (h *PublicHandler) FamilyByCedula(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    out, err := h.Queries.SearchFamilyByNationalID(ctx, c.Param("cedula"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// FamilyByName handles GET /api/familiares/buscar?nombre=.
func (h *PublicHandler) FamilyByName(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    out, err := h.Queries.SearchFamilyByName(ctx, c.QueryParam("nombre"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// DebtByCedula handles GET /api/deudas/cedula/:cedula.
func (h *PublicHandler) DebtByCedula(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    out, err := h.Queries.GetDebtByNationalID(ctx, c.Param("cedula"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}
