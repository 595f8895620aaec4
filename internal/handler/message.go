package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cementerio-ledger/internal/model"
    "github.com/iliyamo/cementerio-ledger/internal/service"
)

// MessageHandler serves the contact form and the admin inbox.
type MessageHandler struct {
    Inbox *service.Inbox
}

func NewMessageHandler(inbox *service.Inbox) *MessageHandler {
    if inbox == nil {
        panic("nil inbox passed to NewMessageHandler")
    }
    return &MessageHandler{Inbox: inbox}
}

type messageReq struct {
    FullName string `json:"nombreCompleto"`
    Email    string `json:"email"`
    Phone    string `json:"telefono"`
    Body     string `json:"mensaje"`
}

// Submit handles POST /api/mensajes.
func (h *MessageHandler) Submit(c echo.Context) error {
    var req messageReq
    if msg, ok := bind(c, &req); !ok {
        return fail(c, http.StatusBadRequest, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    m, err := h.Inbox.Submit(ctx, model.Message{
        FullName: req.FullName,
        Email:    req.Email,
        Phone:    req.Phone,
        Body:     req.Body,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "id": m.ID})
}

// List handles GET /api/mensajes?noLeidos=true (admin only).
func (h *MessageHandler) List(c echo.Context) error {
    unreadOnly := false
    if raw := c.QueryParam("noLeidos"); raw != "" {
        v, err := strconv.ParseBool(raw)
        if err != nil {
            return fail(c, http.StatusBadRequest, "noLeidos debe ser true o false")
        }
        unreadOnly = v
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    out, err := h.Inbox.List(ctx, unreadOnly)
    if err != nil {
        return writeError(c, err)
    }
    if out == nil {
        out = []model.Message{}
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "mensajes": out})
}

// MarkRead handles PUT /api/mensajes/:id/leido (admin only).
func (h *MessageHandler) MarkRead(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "id de mensaje inválido")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Inbox.MarkRead(ctx, id); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}
