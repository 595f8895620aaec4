package repository

import (
    "context"

    "github.com/iliyamo/cementerio-ledger/internal/model"
)

// ListPrices returns every price entry ordered by unit price, cheapest
// first.  Entries with equal price are ordered by id so the listing is
// stable.
func (r *queries) ListPrices(ctx context.Context) ([]model.PriceEntry, error) {
    const q = `SELECT id, sector, precio FROM precios ORDER BY precio ASC, id ASC`
    rows, err := r.q.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.PriceEntry, 0)
    for rows.Next() {
        var p model.PriceEntry
        if err := rows.Scan(&p.ID, &p.SectorName, &p.UnitPrice); err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    return out, rows.Err()
}

// GetPrice fetches one price entry.  ErrNotFound when the id is unknown.
func (r *queries) GetPrice(ctx context.Context, id uint64) (model.PriceEntry, error) {
    const q = `SELECT id, sector, precio FROM precios WHERE id = ? LIMIT 1`
    var p model.PriceEntry
    err := r.q.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.SectorName, &p.UnitPrice)
    return p, translate(err)
}
