package repository

import (
    "context"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/cementerio-ledger/internal/model"
)

// CreatePayment appends a payment event and fills its ID and CreatedAt.
// PaidAt defaults to the insertion time when zero.
func (r *queries) CreatePayment(ctx context.Context, p *model.PaymentEvent) error {
    const q = `INSERT INTO pagos (reserva_id, monto, fecha_pago, created_at) VALUES (?, ?, ?, ?)`
    now := time.Now().UTC()
    if p.PaidAt.IsZero() {
        p.PaidAt = now
    }
    res, err := r.q.ExecContext(ctx, q, p.ReservationID, p.Amount, p.PaidAt.UTC(), now)
    if err != nil {
        return translate(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    p.CreatedAt = now
    return nil
}

// SumPayments returns the committed total paid against a reservation,
// zero when nothing has been paid yet.
func (r *queries) SumPayments(ctx context.Context, reservationID uint64) (decimal.Decimal, error) {
    const q = `SELECT COALESCE(SUM(monto), 0) FROM pagos WHERE reserva_id = ?`
    var total decimal.Decimal
    if err := r.q.QueryRowContext(ctx, q, reservationID).Scan(&total); err != nil {
        return decimal.Zero, err
    }
    return total, nil
}

// ListPayments returns the payment history of a reservation in
// insertion order.
func (r *queries) ListPayments(ctx context.Context, reservationID uint64) ([]model.PaymentEvent, error) {
    const q = `SELECT id, reserva_id, monto, fecha_pago, created_at FROM pagos WHERE reserva_id = ? ORDER BY id ASC`
    rows, err := r.q.QueryContext(ctx, q, reservationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.PaymentEvent, 0)
    for rows.Next() {
        var p model.PaymentEvent
        if err := rows.Scan(&p.ID, &p.ReservationID, &p.Amount, &p.PaidAt, &p.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    return out, rows.Err()
}
