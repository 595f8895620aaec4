package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/cementerio-ledger/internal/model"
    "github.com/iliyamo/cementerio-ledger/internal/service"
)

// PaymentHandler exposes the payment recorder.
type PaymentHandler struct {
    Recorder *service.Recorder
}

// NewPaymentHandler panics if recorder is nil.
func NewPaymentHandler(recorder *service.Recorder) *PaymentHandler {
    if recorder == nil {
        panic("nil recorder passed to NewPaymentHandler")
    }
    return &PaymentHandler{Recorder: recorder}
}

// paymentReq accepts monto as a JSON number or string; both decode
// without passing through float64.
type paymentReq struct {
    ReservationID uint64          `json:"reservaId" validate:"required"`
    Amount        decimal.Decimal `json:"monto"`
    PaidAt        string          `json:"fechaPago"`
}

// parsePaidAt accepts a date (2006-01-02) or a full RFC 3339 timestamp.
// An empty value means "now" and yields nil.
func parsePaidAt(s string) (*time.Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" {
        return nil, true
    }
    for _, layout := range []string{time.RFC3339, "2006-01-02"} {
        if t, err := time.Parse(layout, s); err == nil {
            return &t, true
        }
    }
    return nil, false
}

// Record handles POST /api/pagos.
func (h *PaymentHandler) Record(c echo.Context) error {
    var req paymentReq
    if msg, ok := bind(c, &req); !ok {
        return fail(c, http.StatusBadRequest, msg)
    }
    if req.ReservationID == 0 {
        return fail(c, http.StatusBadRequest, "campo requerido: reservaId")
    }
    paidAt, ok := parsePaidAt(req.PaidAt)
    if !ok {
        return fail(c, http.StatusBadRequest, "fechaPago inválida (use AAAA-MM-DD)")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    receipt, err := h.Recorder.RecordPayment(ctx, req.ReservationID, req.Amount, paidAt)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":        true,
        "pagoId":         receipt.PaymentID,
        "estadoPago":     receipt.State,
        "montoPagado":    receipt.TotalPaid,
        "saldoPendiente": receipt.PendingBalance,
    })
}

// ByClient handles GET /api/pagos/cliente/:cedula.
func (h *PaymentHandler) ByClient(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    info, err := h.Recorder.GetClientPaymentInfo(ctx, c.Param("cedula"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": info})
}

// History handles GET /api/pagos/reserva/:id.  The body is a bare array,
// oldest payment first.
func (h *PaymentHandler) History(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "id de reserva inválido")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    out, err := h.Recorder.ListPayments(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    if out == nil {
        out = []model.PaymentEvent{}
    }
    return c.JSON(http.StatusOK, out)
}

// Status handles GET /api/pagos/estado/:id.
func (h *PaymentHandler) Status(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "id de reserva inválido")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    s, err := h.Recorder.GetPaymentSummary(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "estadoPago":     s.State,
        "montoTotal":     s.TotalDue,
        "montoPagado":    s.TotalPaid,
        "saldoPendiente": s.PendingBalance,
    })
}

// Rebuild handles POST /api/pagos/reserva/:id/recalcular (admin only).
func (h *PaymentHandler) Rebuild(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "id de reserva inválido")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    st, err := h.Recorder.RebuildState(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "estadoPago": st})
}
