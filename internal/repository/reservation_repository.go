package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/cementerio-ledger/internal/model"
)

// reservationSelect joins the sector and client so every reservation
// read carries its sector name, unit price and cédula.  All timestamp
// fields are stored in UTC.
const reservationSelect = `SELECT r.id, r.cliente_id, r.nombres_familiar, r.apellidos_familiar,
       r.precio_id, r.estado_pago, r.created_at,
       p.sector, p.precio, c.cedula
FROM reservas r
JOIN precios p ON p.id = r.precio_id
JOIN clientes c ON c.id = r.cliente_id`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanReservation(s rowScanner) (model.Reservation, error) {
    var res model.Reservation
    var state string
    err := s.Scan(
        &res.ID, &res.ClientID, &res.FamilyGivenNames, &res.FamilySurnames,
        &res.PriceID, &state, &res.CreatedAt,
        &res.SectorName, &res.UnitPrice, &res.ClientNationalID,
    )
    res.State = model.PaymentState(state)
    return res, err
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    return out, rows.Err()
}

// CreateReservation inserts a new reservation and populates its ID and
// CreatedAt.  State defaults to Pending when empty.  The denormalized
// sector fields are left for the caller to fill.
func (r *queries) CreateReservation(ctx context.Context, res *model.Reservation) error {
    const q = `INSERT INTO reservas (cliente_id, nombres_familiar, apellidos_familiar, precio_id, estado_pago, created_at)
               VALUES (?, ?, ?, ?, ?, ?)`
    if res.State == "" {
        res.State = model.StatePending
    }
    if res.CreatedAt.IsZero() {
        res.CreatedAt = time.Now().UTC()
    }
    result, err := r.q.ExecContext(ctx, q,
        res.ClientID, res.FamilyGivenNames, res.FamilySurnames, res.PriceID, string(res.State), res.CreatedAt)
    if err != nil {
        return translate(err)
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    return nil
}

// GetReservation returns a reservation with its sector details.
func (r *queries) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
    res, err := scanReservation(r.q.QueryRowContext(ctx, reservationSelect+` WHERE r.id = ?`, id))
    return res, translate(err)
}

// LockReservation reads the reservation and, inside a transaction, holds
// an exclusive lock on its reservas row until commit or rollback.  Only
// the reservation row is locked; the joined price and client rows are
// not.  Outside a transaction it behaves like GetReservation.
func (r *queries) LockReservation(ctx context.Context, id uint64) (model.Reservation, error) {
    if !r.inTx {
        return r.GetReservation(ctx, id)
    }
    res, err := scanReservation(r.q.QueryRowContext(ctx, reservationSelect+` WHERE r.id = ? FOR UPDATE OF r`, id))
    return res, translate(err)
}

// UpdateReservationState writes the cached payment state.  The caller is
// expected to have locked the row first; MySQL reports zero affected
// rows when the state is unchanged, so the count is not checked here.
func (r *queries) UpdateReservationState(ctx context.Context, id uint64, state model.PaymentState) error {
    const q = `UPDATE reservas SET estado_pago = ? WHERE id = ?`
    _, err := r.q.ExecContext(ctx, q, string(state), id)
    return translate(err)
}

// ListReservationsByNationalID returns the reservations of the client
// with the given cédula, newest first.  An unknown cédula yields an
// empty slice.
func (r *queries) ListReservationsByNationalID(ctx context.Context, nationalID string) ([]model.Reservation, error) {
    rows, err := r.q.QueryContext(ctx,
        reservationSelect+` WHERE c.cedula = ? ORDER BY r.created_at DESC, r.id DESC`,
        strings.TrimSpace(nationalID))
    if err != nil {
        return nil, err
    }
    return collectReservations(rows)
}

// SearchReservationsByFamilyName performs a case-insensitive substring
// match on "given names surnames" of the family member.  LIKE wildcards
// in fragment are matched literally.
func (r *queries) SearchReservationsByFamilyName(ctx context.Context, fragment string) ([]model.Reservation, error) {
    pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(fragment))) + "%"
    rows, err := r.q.QueryContext(ctx,
        reservationSelect+` WHERE LOWER(CONCAT_WS(' ', r.nombres_familiar, r.apellidos_familiar)) LIKE ?
ORDER BY r.apellidos_familiar, r.nombres_familiar, r.id`,
        pattern)
    if err != nil {
        return nil, err
    }
    return collectReservations(rows)
}

// escapeLike escapes the LIKE metacharacters using MySQL's default
// backslash escape.
func escapeLike(s string) string {
    return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
