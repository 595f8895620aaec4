package repository

import (
    "context"
    "time"

    "github.com/iliyamo/cementerio-ledger/internal/model"
)

// CreateMessage stores a contact form submission as unread.
func (r *queries) CreateMessage(ctx context.Context, m *model.Message) error {
    const q = `INSERT INTO mensajes (nombre_completo, email, telefono, mensaje, created_at, leido) VALUES (?, ?, ?, ?, ?, FALSE)`
    now := time.Now().UTC()
    res, err := r.q.ExecContext(ctx, q, m.FullName, m.Email, m.Phone, m.Body, now)
    if err != nil {
        return translate(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    m.CreatedAt = now
    m.Read = false
    return nil
}

// ListMessages returns messages newest first, optionally only unread ones.
func (r *queries) ListMessages(ctx context.Context, unreadOnly bool) ([]model.Message, error) {
    q := `SELECT id, nombre_completo, email, telefono, mensaje, created_at, leido FROM mensajes`
    if unreadOnly {
        q += ` WHERE leido = FALSE`
    }
    q += ` ORDER BY created_at DESC, id DESC`
    rows, err := r.q.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Message, 0)
    for rows.Next() {
        var m model.Message
        if err := rows.Scan(&m.ID, &m.FullName, &m.Email, &m.Phone, &m.Body, &m.CreatedAt, &m.Read); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// MarkMessageRead flags a message as read.  Marking an already read
// message is not an error; an unknown id returns ErrNotFound.
func (r *queries) MarkMessageRead(ctx context.Context, id uint64) error {
    res, err := r.q.ExecContext(ctx, `UPDATE mensajes SET leido = TRUE WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n > 0 {
        return nil
    }
    var one int
    err = r.q.QueryRowContext(ctx, `SELECT 1 FROM mensajes WHERE id = ?`, id).Scan(&one)
    return translate(err)
}
