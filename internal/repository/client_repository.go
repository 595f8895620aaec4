package repository

import (
    "context"
    "strings"
    "time"

    "github.com/iliyamo/cementerio-ledger/internal/model"
)

// GetClientByNationalID fetches a client by cédula.
func (r *queries) GetClientByNationalID(ctx context.Context, nationalID string) (model.Client, error) {
    const q = `SELECT id, nombres, apellidos, cedula, email, created_at FROM clientes WHERE cedula = ? LIMIT 1`
    var c model.Client
    err := r.q.QueryRowContext(ctx, q, strings.TrimSpace(nationalID)).Scan(
        &c.ID, &c.GivenNames, &c.Surnames, &c.NationalID, &c.Email, &c.CreatedAt)
    return c, translate(err)
}

// CreateClient inserts c and fills its ID and CreatedAt.  A second row
// with the same cédula fails with ErrDuplicate because of the unique key
// on clientes.cedula.
func (r *queries) CreateClient(ctx context.Context, c *model.Client) error {
    const q = `INSERT INTO clientes (nombres, apellidos, cedula, email, created_at) VALUES (?, ?, ?, ?, ?)`
    now := time.Now().UTC()
    res, err := r.q.ExecContext(ctx, q, c.GivenNames, c.Surnames, c.NationalID, strings.ToLower(strings.TrimSpace(c.Email)), now)
    if err != nil {
        return translate(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)
    c.Email = strings.ToLower(strings.TrimSpace(c.Email))
    c.CreatedAt = now
    return nil
}
