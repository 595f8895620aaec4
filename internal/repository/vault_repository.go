package repository

import (
    "context"

    "github.com/iliyamo/cementerio-ledger/internal/model"
)

// ListVaultStock returns the vault inventory grouped by sector and type.
// The bovedas table is maintained by the inventory tooling; the ledger
// only reads it.
func (r *queries) ListVaultStock(ctx context.Context) ([]model.VaultStock, error) {
    const q = `SELECT id, sector, tipo, total, disponibles FROM bovedas ORDER BY sector, tipo, id`
    rows, err := r.q.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.VaultStock, 0)
    for rows.Next() {
        var v model.VaultStock
        if err := rows.Scan(&v.ID, &v.SectorName, &v.VaultType, &v.TotalUnits, &v.AvailableUnits); err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    return out, rows.Err()
}
