package repository

import (
    "context"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/cementerio-ledger/internal/model"
)

// Repository is the set of persistence operations the ledger needs.  The
// same methods run directly against the pool or, inside a transaction
// callback, against the transaction.  LockReservation only takes a row
// lock when called inside a transaction.
type Repository interface {
    ListPrices(ctx context.Context) ([]model.PriceEntry, error)
    GetPrice(ctx context.Context, id uint64) (model.PriceEntry, error)

    GetClientByNationalID(ctx context.Context, nationalID string) (model.Client, error)
    CreateClient(ctx context.Context, c *model.Client) error

    CreateReservation(ctx context.Context, r *model.Reservation) error
    GetReservation(ctx context.Context, id uint64) (model.Reservation, error)
    LockReservation(ctx context.Context, id uint64) (model.Reservation, error)
    UpdateReservationState(ctx context.Context, id uint64, state model.PaymentState) error
    ListReservationsByNationalID(ctx context.Context, nationalID string) ([]model.Reservation, error)
    SearchReservationsByFamilyName(ctx context.Context, fragment string) ([]model.Reservation, error)

    CreatePayment(ctx context.Context, p *model.PaymentEvent) error
    SumPayments(ctx context.Context, reservationID uint64) (decimal.Decimal, error)
    ListPayments(ctx context.Context, reservationID uint64) ([]model.PaymentEvent, error)

    ListVaultStock(ctx context.Context) ([]model.VaultStock, error)

    CreateMessage(ctx context.Context, m *model.Message) error
    ListMessages(ctx context.Context, unreadOnly bool) ([]model.Message, error)
    MarkMessageRead(ctx context.Context, id uint64) error
}
