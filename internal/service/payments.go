package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/shopspring/decimal"
    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/model"
    "github.com/iliyamo/cementerio-ledger/internal/queue"
    "github.com/iliyamo/cementerio-ledger/internal/repository"
)

// PaymentReceipt is returned after a payment commits.
type PaymentReceipt struct {
    PaymentID      uint64             `json:"pagoId"`
    ReservationID  uint64             `json:"reservaId"`
    State          model.PaymentState `json:"estadoPago"`
    TotalPaid      model.Money        `json:"montoPagado"`
    PendingBalance model.Money        `json:"saldoPendiente"`
}

// PaymentSummary is the balance of one reservation.  Totals are computed
// from History, so the three figures always agree with the list.
type PaymentSummary struct {
    ReservationID  uint64               `json:"reservaId"`
    Sector         string               `json:"sector"`
    State          model.PaymentState   `json:"estadoPago"`
    TotalDue       model.Money          `json:"montoTotal"`
    TotalPaid      model.Money          `json:"montoPagado"`
    PendingBalance model.Money          `json:"saldoPendiente"`
    History        []model.PaymentEvent `json:"historial"`
}

// ClientPaymentInfo pairs a client with the balance of their most
// relevant reservation.
type ClientPaymentInfo struct {
    Client      model.Client      `json:"cliente"`
    Reservation model.Reservation `json:"reserva"`
    Summary     PaymentSummary    `json:"resumen"`
}

// Recorder appends payments and keeps the cached reservation state in
// step with the payment history.
type Recorder struct {
    store  Store
    events Publisher
    log    *zap.Logger
}

// NewRecorder returns a Recorder.  A nil publisher or logger disables
// that concern.
func NewRecorder(store Store, events Publisher, log *zap.Logger) *Recorder {
    if events == nil {
        events = NopPublisher{}
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &Recorder{store: store, events: events, log: log.Named("payments")}
}

// RecordPayment appends a payment of amount to the reservation and moves
// its state forward.  The row lock, the insert, the sum and the state
// update share one transaction, so concurrent payments on the same
// reservation serialize and none is lost.  Amounts finer than a cent are
// rejected, never rounded.
func (r *Recorder) RecordPayment(ctx context.Context, reservationID uint64, amount decimal.Decimal, paidAt *time.Time) (PaymentReceipt, error) {
    if amount.Sign() <= 0 {
        return PaymentReceipt{}, validationError("monto inválido: debe ser mayor que cero")
    }
    if !amount.Equal(amount.Truncate(2)) {
        return PaymentReceipt{}, validationError("monto inválido: máximo dos decimales")
    }
    if reservationID == 0 {
        return PaymentReceipt{}, validationError("campo requerido: reservaId")
    }
    ev := model.PaymentEvent{ReservationID: reservationID, Amount: amount}
    if paidAt != nil {
        ev.PaidAt = paidAt.UTC()
    }

    var receipt PaymentReceipt
    var sector string
    err := r.store.InTx(ctx, func(tx repository.Repository) error {
        res, err := tx.LockReservation(ctx, reservationID)
        if err != nil {
            return err
        }
        if !res.State.AcceptsPayments() {
            return &Error{Kind: ErrInvalidState, Message: "la reserva está cancelada y no admite pagos"}
        }
        if err := tx.CreatePayment(ctx, &ev); err != nil {
            return err
        }
        total, err := tx.SumPayments(ctx, reservationID)
        if err != nil {
            return err
        }
        next := model.NextState(res.State, total, res.UnitPrice)
        if next != res.State {
            if err := tx.UpdateReservationState(ctx, reservationID, next); err != nil {
                return err
            }
        }
        sector = res.SectorName
        receipt = PaymentReceipt{
            PaymentID:      ev.ID,
            ReservationID:  reservationID,
            State:          next,
            TotalPaid:      model.Cents(total),
            PendingBalance: model.Cents(model.PendingBalance(total, res.UnitPrice)),
        }
        return nil
    })
    if err != nil {
        return PaymentReceipt{}, r.txError(err, reservationID, "no se pudo registrar el pago")
    }

    r.log.Info("payment recorded",
        zap.Uint64("reservation_id", reservationID),
        zap.Uint64("payment_id", receipt.PaymentID),
        zap.String("amount", amount.StringFixed(2)),
        zap.String("state", string(receipt.State)))

    out := queue.NewLedgerEvent(queue.EventPaymentRecorded, reservationID, string(receipt.State))
    out.Sector = sector
    out.Amount = &amount
    pending := receipt.PendingBalance.Decimal
    out.PendingBalance = &pending
    publish(ctx, r.events, r.log, out)
    return receipt, nil
}

// txError maps a failed transaction to a service error.
func (r *Recorder) txError(err error, reservationID uint64, op string) error {
    var se *Error
    switch {
    case errors.As(err, &se):
        return se
    case errors.Is(err, repository.ErrNotFound):
        return notFoundError("reserva %d no encontrada", reservationID)
    }
    r.log.Error(op, zap.Uint64("reservation_id", reservationID), zap.Error(err))
    return storeError(op, err)
}

// GetPaymentSummary returns the balance and history of a reservation.
func (r *Recorder) GetPaymentSummary(ctx context.Context, reservationID uint64) (PaymentSummary, error) {
    res, err := r.store.GetReservation(ctx, reservationID)
    if errors.Is(err, repository.ErrNotFound) {
        return PaymentSummary{}, notFoundError("reserva %d no encontrada", reservationID)
    }
    if err != nil {
        return PaymentSummary{}, storeError("no se pudo leer la reserva", err)
    }
    return r.summarize(ctx, res)
}

func (r *Recorder) summarize(ctx context.Context, res model.Reservation) (PaymentSummary, error) {
    history, err := r.store.ListPayments(ctx, res.ID)
    if err != nil {
        return PaymentSummary{}, storeError("no se pudo leer el historial de pagos", err)
    }
    paid := decimal.Zero
    for _, p := range history {
        paid = paid.Add(p.Amount)
    }
    return PaymentSummary{
        ReservationID:  res.ID,
        Sector:         res.SectorName,
        State:          res.State,
        TotalDue:       model.Cents(res.UnitPrice),
        TotalPaid:      model.Cents(paid),
        PendingBalance: model.Cents(model.PendingBalance(paid, res.UnitPrice)),
        History:        history,
    }, nil
}

// ListPayments returns the payment history of a reservation, oldest first.
// An unknown reservation yields an empty list.
func (r *Recorder) ListPayments(ctx context.Context, reservationID uint64) ([]model.PaymentEvent, error) {
    out, err := r.store.ListPayments(ctx, reservationID)
    if err != nil {
        return nil, storeError("no se pudo leer el historial de pagos", err)
    }
    return out, nil
}

// GetClientPaymentInfo resolves a cédula to the client's most relevant
// reservation, the newest one that is not cancelled, and summarizes it.
// When every reservation is cancelled the newest one is used.
func (r *Recorder) GetClientPaymentInfo(ctx context.Context, nationalID string) (ClientPaymentInfo, error) {
    nationalID = strings.TrimSpace(nationalID)
    if !ValidCedulaFormat(nationalID) {
        return ClientPaymentInfo{}, validationError("cédula inválida: debe tener 10 dígitos")
    }
    client, err := r.store.GetClientByNationalID(ctx, nationalID)
    if errors.Is(err, repository.ErrNotFound) {
        return ClientPaymentInfo{}, notFoundError("no existe un cliente con la cédula %s", nationalID)
    }
    if err != nil {
        return ClientPaymentInfo{}, storeError("no se pudo consultar el cliente", err)
    }
    reservations, err := r.store.ListReservationsByNationalID(ctx, nationalID)
    if err != nil {
        return ClientPaymentInfo{}, storeError("no se pudieron leer las reservas", err)
    }
    if len(reservations) == 0 {
        return ClientPaymentInfo{}, notFoundError("el cliente no tiene reservas")
    }
    chosen := reservations[0]
    for _, res := range reservations {
        if res.State != model.StateCancelled {
            chosen = res
            break
        }
    }
    summary, err := r.summarize(ctx, chosen)
    if err != nil {
        return ClientPaymentInfo{}, err
    }
    return ClientPaymentInfo{Client: client, Reservation: chosen, Summary: summary}, nil
}

// RebuildState recomputes the cached state from the payment history
// alone, repairing rows whose state drifted (for example after a manual
// override).  A cancelled reservation stays cancelled.
func (r *Recorder) RebuildState(ctx context.Context, reservationID uint64) (model.PaymentState, error) {
    var before, after model.PaymentState
    err := r.store.InTx(ctx, func(tx repository.Repository) error {
        res, err := tx.LockReservation(ctx, reservationID)
        if err != nil {
            return err
        }
        before, after = res.State, res.State
        if res.State == model.StateCancelled {
            return nil
        }
        total, err := tx.SumPayments(ctx, reservationID)
        if err != nil {
            return err
        }
        after = model.Recompute(total, res.UnitPrice)
        if after == before {
            return nil
        }
        return tx.UpdateReservationState(ctx, reservationID, after)
    })
    if err != nil {
        return "", r.txError(err, reservationID, "no se pudo recalcular el estado")
    }
    if after != before {
        r.log.Info("reservation state rebuilt",
            zap.Uint64("reservation_id", reservationID),
            zap.String("from", string(before)),
            zap.String("to", string(after)))
        publish(ctx, r.events, r.log, queue.NewLedgerEvent(queue.EventStatusChanged, reservationID, string(after)))
    }
    return after, nil
}
