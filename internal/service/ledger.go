package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/model"
    "github.com/iliyamo/cementerio-ledger/internal/queue"
    "github.com/iliyamo/cementerio-ledger/internal/repository"
)

// LedgerConfig tunes reservation validation.
type LedgerConfig struct {
    // StrictCedula additionally requires a valid province code and check
    // digit when a reservation is made.
    StrictCedula bool
}

// Ledger creates reservations and applies administrative state changes.
// Payment states are otherwise only written by Recorder.
type Ledger struct {
    store    Store
    catalog  *Catalog
    registry *Registry
    events   Publisher
    cfg      LedgerConfig
    log      *zap.Logger
}

// NewLedger wires a Ledger.  A nil publisher or logger disables that concern.
func NewLedger(store Store, catalog *Catalog, registry *Registry, events Publisher, cfg LedgerConfig, log *zap.Logger) *Ledger {
    if events == nil {
        events = NopPublisher{}
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &Ledger{store: store, catalog: catalog, registry: registry, events: events, cfg: cfg, log: log.Named("ledger")}
}

// ReserveInput is a full reservation request: who pays, for whom, and where.
type ReserveInput struct {
    NationalID       string
    GivenNames       string
    Surnames         string
    Email            string
    FamilyGivenNames string
    FamilySurnames   string
    PriceID          uint64
}

// Reserve registers the client when needed and creates the reservation.
// The price is validated before the client is touched so that a bad
// request leaves no rows behind.
func (l *Ledger) Reserve(ctx context.Context, in ReserveInput) (model.Reservation, model.Client, error) {
    in.NationalID = strings.TrimSpace(in.NationalID)
    for _, f := range [...]struct{ name, value string }{
        {"cedula", in.NationalID},
        {"nombres", in.GivenNames},
        {"apellidos", in.Surnames},
        {"nombresFamiliar", in.FamilyGivenNames},
        {"apellidosFamiliar", in.FamilySurnames},
    } {
        if strings.TrimSpace(f.value) == "" {
            return model.Reservation{}, model.Client{}, validationError("campo requerido: %s", f.name)
        }
    }
    if in.PriceID == 0 {
        return model.Reservation{}, model.Client{}, validationError("campo requerido: precioId")
    }
    if !ValidCedulaFormat(in.NationalID) {
        return model.Reservation{}, model.Client{}, validationError("cédula inválida: debe tener 10 dígitos")
    }
    if l.cfg.StrictCedula && !ValidCedulaChecksum(in.NationalID) {
        return model.Reservation{}, model.Client{}, validationError("cédula inválida: dígito verificador incorrecto")
    }
    if _, err := l.catalog.Get(ctx, in.PriceID); err != nil {
        return model.Reservation{}, model.Client{}, err
    }
    client, err := l.registry.GetOrCreate(ctx, in.NationalID, in.GivenNames, in.Surnames, in.Email)
    if err != nil {
        return model.Reservation{}, model.Client{}, err
    }
    res, err := l.CreateReservation(ctx, client, in.FamilyGivenNames, in.FamilySurnames, in.PriceID)
    if err != nil {
        return model.Reservation{}, client, err
    }
    return res, client, nil
}

// CreateReservation inserts a Pending reservation for an existing client
// and returns it with the sector name filled in.
func (l *Ledger) CreateReservation(ctx context.Context, client model.Client, familyGivenNames, familySurnames string, priceID uint64) (model.Reservation, error) {
    familyGivenNames, familySurnames = strings.TrimSpace(familyGivenNames), strings.TrimSpace(familySurnames)
    if client.ID == 0 {
        return model.Reservation{}, validationError("cliente requerido")
    }
    if familyGivenNames == "" || familySurnames == "" {
        return model.Reservation{}, validationError("nombres y apellidos del familiar son obligatorios")
    }
    price, err := l.catalog.Get(ctx, priceID)
    if err != nil {
        return model.Reservation{}, err
    }
    res := model.Reservation{
        ClientID:         client.ID,
        FamilyGivenNames: familyGivenNames,
        FamilySurnames:   familySurnames,
        PriceID:          price.ID,
        State:            model.StatePending,
        CreatedAt:        time.Now().UTC(),
    }
    if err := l.store.CreateReservation(ctx, &res); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return model.Reservation{}, &Error{Kind: ErrInvalidReference, Message: "cliente o precio inexistente"}
        }
        return model.Reservation{}, storeError("no se pudo crear la reserva", err)
    }
    res.SectorName = price.SectorName
    res.UnitPrice = price.UnitPrice
    res.ClientNationalID = client.NationalID

    l.log.Info("reservation created",
        zap.Uint64("reservation_id", res.ID),
        zap.Uint64("client_id", client.ID),
        zap.String("sector", price.SectorName))

    ev := queue.NewLedgerEvent(queue.EventReservationCreated, res.ID, string(res.State))
    ev.ClientID = client.ID
    ev.NationalID = client.NationalID
    ev.Sector = price.SectorName
    due := price.UnitPrice
    ev.PendingBalance = &due
    publish(ctx, l.events, l.log, ev)
    return res, nil
}

// UpdateStatus is the administrative override.  Any recognised state may
// be set, including Cancelled; unknown tags are rejected before any row
// is read.
func (l *Ledger) UpdateStatus(ctx context.Context, reservationID uint64, newState string) error {
    st, ok := model.ParsePaymentState(strings.TrimSpace(newState))
    if !ok {
        return validationError("estado inválido: %q (use Pending, Partial, Paid o Cancelled)", newState)
    }
    var previous model.PaymentState
    err := l.store.InTx(ctx, func(tx repository.Repository) error {
        res, err := tx.LockReservation(ctx, reservationID)
        if err != nil {
            return err
        }
        previous = res.State
        if res.State == st {
            return nil
        }
        return tx.UpdateReservationState(ctx, reservationID, st)
    })
    if errors.Is(err, repository.ErrNotFound) {
        return notFoundError("reserva %d no encontrada", reservationID)
    }
    if err != nil {
        return storeError("no se pudo actualizar el estado", err)
    }
    l.log.Info("reservation state overridden",
        zap.Uint64("reservation_id", reservationID),
        zap.String("from", string(previous)),
        zap.String("to", string(st)))
    if previous != st {
        publish(ctx, l.events, l.log, queue.NewLedgerEvent(queue.EventStatusChanged, reservationID, string(st)))
    }
    return nil
}

// FindByClientNationalID lists a client's reservations, newest first.
// An unknown client yields an empty slice, not an error.
func (l *Ledger) FindByClientNationalID(ctx context.Context, nationalID string) ([]model.Reservation, error) {
    nationalID = strings.TrimSpace(nationalID)
    if !ValidCedulaFormat(nationalID) {
        return nil, validationError("cédula inválida: debe tener 10 dígitos")
    }
    out, err := l.store.ListReservationsByNationalID(ctx, nationalID)
    if err != nil {
        return nil, storeError("no se pudieron leer las reservas", err)
    }
    return out, nil
}

// Get returns one reservation or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, id uint64) (model.Reservation, error) {
    res, err := l.store.GetReservation(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return model.Reservation{}, notFoundError("reserva %d no encontrada", id)
    }
    if err != nil {
        return model.Reservation{}, storeError("no se pudo leer la reserva", err)
    }
    return res, nil
}

// publish hands ev to the broker.  The ledger rows are already
// committed, so a failure is logged and otherwise ignored.
func publish(ctx context.Context, p Publisher, log *zap.Logger, ev queue.LedgerEvent) {
    if err := p.Publish(ctx, ev); err != nil {
        log.Warn("publish ledger event failed",
            zap.String("type", ev.Type),
            zap.Uint64("reservation_id", ev.ReservationID),
            zap.Error(err))
    }
}
