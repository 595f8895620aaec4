package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cementerio-ledger/internal/model"
    "github.com/iliyamo/cementerio-ledger/internal/service"
)

// ReservationHandler exposes client registration and the reservation
// ledger.  Field checks are left to the services so the order of error
// messages is the same for every caller.
type ReservationHandler struct {
    Registry *service.Registry
    Ledger   *service.Ledger
}

// NewReservationHandler panics if a dependency is nil.
func NewReservationHandler(registry *service.Registry, ledger *service.Ledger) *ReservationHandler {
    if registry == nil || ledger == nil {
        panic("nil service passed to NewReservationHandler")
    }
    return &ReservationHandler{Registry: registry, Ledger: ledger}
}

// ----- DTOs -----

type clientReq struct {
    NationalID string `json:"cedula"`
    GivenNames string `json:"nombres"`
    Surnames   string `json:"apellidos"`
    Email      string `json:"email"`
}

type reservationReq struct {
    clientReq
    FamilyGivenNames string `json:"nombresFamiliar"`
    FamilySurnames   string `json:"apellidosFamiliar"`
    PriceID          uint64 `json:"precioId"`
}

type statusReq struct {
    State string `json:"estadoPago" validate:"required"`
}

// CreateClient handles POST /api/clientes.  Repeating the call with the
// same cédula returns the existing id and leaves the stored data as is.
func (h *ReservationHandler) CreateClient(c echo.Context) error {
    var req clientReq
    if msg, ok := bind(c, &req); !ok {
        return fail(c, http.StatusBadRequest, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    client, err := h.Registry.GetOrCreate(ctx, req.NationalID, req.GivenNames, req.Surnames, req.Email)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "clienteId": client.ID})
}

// CreateReservation handles POST /api/reservas.  The client is registered
// in-process when the cédula is new.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
    var req reservationReq
    if msg, ok := bind(c, &req); !ok {
        return fail(c, http.StatusBadRequest, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    res, client, err := h.Ledger.Reserve(ctx, service.ReserveInput{
        NationalID:       req.NationalID,
        GivenNames:       req.GivenNames,
        Surnames:         req.Surnames,
        Email:            req.Email,
        FamilyGivenNames: req.FamilyGivenNames,
        FamilySurnames:   req.FamilySurnames,
        PriceID:          req.PriceID,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":   true,
        "reservaId": res.ID,
        "clienteId": client.ID,
        "sector":    res.SectorName,
    })
}

// ListByClient handles GET /api/reservas/cliente/:cedula.
func (h *ReservationHandler) ListByClient(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    rs, err := h.Ledger.FindByClientNationalID(ctx, c.Param("cedula"))
    if err != nil {
        return writeError(c, err)
    }
    if rs == nil {
        rs = []model.Reservation{}
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "reservas": rs})
}

// UpdateStatus handles PUT /api/reservas/:id/estado (admin only).
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "id de reserva inválido")
    }
    var req statusReq
    if msg, ok := bind(c, &req); !ok {
        return fail(c, http.StatusBadRequest, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Ledger.UpdateStatus(ctx, id, req.State); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}
