package service

import (
    "context"
    "errors"
    "strings"
    "unicode/utf8"

    "github.com/go-playground/validator/v10"
    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/model"
    "github.com/iliyamo/cementerio-ledger/internal/repository"
)

// MaxMessageLength bounds the body of a contact message, in runes.
const MaxMessageLength = 2000

// Inbox stores contact form messages for the administrators.
type Inbox struct {
    store    Store
    validate *validator.Validate
    log      *zap.Logger
}

func NewInbox(store Store, log *zap.Logger) *Inbox {
    if log == nil {
        log = zap.NewNop()
    }
    return &Inbox{store: store, validate: validator.New(), log: log.Named("inbox")}
}

// Submit validates and stores m as unread.  ID and CreatedAt are filled
// on success.
func (i *Inbox) Submit(ctx context.Context, m model.Message) (model.Message, error) {
    m.FullName = strings.TrimSpace(m.FullName)
    m.Email = strings.ToLower(strings.TrimSpace(m.Email))
    m.Phone = strings.TrimSpace(m.Phone)
    m.Body = strings.TrimSpace(m.Body)
    switch {
    case m.FullName == "":
        return model.Message{}, validationError("campo requerido: nombreCompleto")
    case m.Body == "":
        return model.Message{}, validationError("campo requerido: mensaje")
    case utf8.RuneCountInString(m.Body) > MaxMessageLength:
        return model.Message{}, validationError("el mensaje supera %d caracteres", MaxMessageLength)
    case i.validate.Var(m.Email, "required,email") != nil:
        return model.Message{}, validationError("email inválido")
    }
    if err := i.store.CreateMessage(ctx, &m); err != nil {
        return model.Message{}, storeError("no se pudo guardar el mensaje", err)
    }
    i.log.Info("contact message received", zap.Uint64("message_id", m.ID))
    return m, nil
}

// List returns messages newest first.
func (i *Inbox) List(ctx context.Context, unreadOnly bool) ([]model.Message, error) {
    out, err := i.store.ListMessages(ctx, unreadOnly)
    if err != nil {
        return nil, storeError("no se pudieron leer los mensajes", err)
    }
    return out, nil
}

// MarkRead flags a message as read.  Marking it twice is not an error.
func (i *Inbox) MarkRead(ctx context.Context, id uint64) error {
    err := i.store.MarkMessageRead(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return notFoundError("mensaje %d no encontrado", id)
    }
    if err != nil {
        return storeError("no se pudo actualizar el mensaje", err)
    }
    return nil
}
