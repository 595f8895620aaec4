// Package memstore is an in-memory implementation of
// repository.Repository.  It backs the server when STORE_DRIVER=memory
// and the service tests.  Transactions are serialized behind a single
// mutex and rolled back by restoring a snapshot, which gives the same
// guarantees the MySQL store gets from row locks: no lost updates and no
// partial writes.
package memstore

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/cementerio-ledger/internal/model"
    "github.com/iliyamo/cementerio-ledger/internal/repository"
)

type data struct {
    seq          uint64
    prices       map[uint64]model.PriceEntry
    clients      map[uint64]model.Client
    clientByNID  map[string]uint64
    reservations map[uint64]model.Reservation
    payments     []model.PaymentEvent
    vaults       []model.VaultStock
    messages     map[uint64]model.Message
}

func newData() *data {
    return &data{
        prices:       map[uint64]model.PriceEntry{},
        clients:      map[uint64]model.Client{},
        clientByNID:  map[string]uint64{},
        reservations: map[uint64]model.Reservation{},
        messages:     map[uint64]model.Message{},
    }
}

func (d *data) clone() *data {
    c := newData()
    c.seq = d.seq
    for k, v := range d.prices {
        c.prices[k] = v
    }
    for k, v := range d.clients {
        c.clients[k] = v
    }
    for k, v := range d.clientByNID {
        c.clientByNID[k] = v
    }
    for k, v := range d.reservations {
        c.reservations[k] = v
    }
    for k, v := range d.messages {
        c.messages[k] = v
    }
    c.payments = append([]model.PaymentEvent(nil), d.payments...)
    c.vaults = append([]model.VaultStock(nil), d.vaults...)
    return c
}

func (d *data) nextID() uint64 {
    d.seq++
    return d.seq
}

// Store holds all tables in memory.  The zero value is not usable; call New.
type Store struct {
    conn
    txMu sync.Mutex   // held for the whole of a transaction or a single write
    mu   sync.RWMutex // guards d
    d    *data
}

// New returns an empty store.
func New() *Store {
    s := &Store{d: newData()}
    s.conn = conn{s: s}
    return s
}

// InTx runs fn with exclusive write access.  When fn fails or ctx is
// done, every change fn made is discarded.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Repository) error) error {
    s.txMu.Lock()
    defer s.txMu.Unlock()
    if err := ctx.Err(); err != nil {
        return err
    }
    s.mu.RLock()
    snap := s.d.clone()
    s.mu.RUnlock()

    err := fn(&conn{s: s, inTx: true})
    if err == nil {
        err = ctx.Err()
    }
    if err != nil {
        s.mu.Lock()
        s.d = snap
        s.mu.Unlock()
        return err
    }
    return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// SeedPrice adds a price entry and returns it with its id.
func (s *Store) SeedPrice(sector string, price decimal.Decimal) model.PriceEntry {
    s.txMu.Lock()
    defer s.txMu.Unlock()
    s.mu.Lock()
    defer s.mu.Unlock()
    p := model.PriceEntry{ID: s.d.nextID(), SectorName: sector, UnitPrice: price}
    s.d.prices[p.ID] = p
    return p
}

// SeedVault adds a vault inventory row.
func (s *Store) SeedVault(sector, vaultType string, total, available int) model.VaultStock {
    s.txMu.Lock()
    defer s.txMu.Unlock()
    s.mu.Lock()
    defer s.mu.Unlock()
    v := model.VaultStock{ID: s.d.nextID(), SectorName: sector, VaultType: vaultType, TotalUnits: total, AvailableUnits: available}
    s.d.vaults = append(s.d.vaults, v)
    return v
}

// SeedDemo loads the reference sectors used for local runs.
func (s *Store) SeedDemo() {
    s.SeedPrice("Sector A - Bóvedas", decimal.RequireFromString("1200.00"))
    s.SeedPrice("Sector B - Nichos", decimal.RequireFromString("850.00"))
    s.SeedPrice("Sector C - Arriendo anual", decimal.RequireFromString("80.00"))
    s.SeedVault("Sector A - Bóvedas", "boveda", 120, 34)
    s.SeedVault("Sector B - Nichos", "nicho", 300, 112)
    s.SeedVault("Sector C - Arriendo anual", "nicho", 60, 9)
}

// conn implements repository.Repository.  Writes outside a transaction
// take txMu so they cannot interleave with one.
type conn struct {
    s    *Store
    inTx bool
}

func (c *conn) read(fn func(d *data) error) error {
    c.s.mu.RLock()
    defer c.s.mu.RUnlock()
    return fn(c.s.d)
}

func (c *conn) write(fn func(d *data) error) error {
    if !c.inTx {
        c.s.txMu.Lock()
        defer c.s.txMu.Unlock()
    }
    c.s.mu.Lock()
    defer c.s.mu.Unlock()
    return fn(c.s.d)
}

func (c *conn) ListPrices(ctx context.Context) ([]model.PriceEntry, error) {
    out := make([]model.PriceEntry, 0)
    err := c.read(func(d *data) error {
        for _, p := range d.prices {
            out = append(out, p)
        }
        return nil
    })
    sort.Slice(out, func(i, j int) bool {
        if cmp := out[i].UnitPrice.Cmp(out[j].UnitPrice); cmp != 0 {
            return cmp < 0
        }
        return out[i].ID < out[j].ID
    })
    return out, err
}

func (c *conn) GetPrice(ctx context.Context, id uint64) (model.PriceEntry, error) {
    var p model.PriceEntry
    err := c.read(func(d *data) error {
        var ok bool
        if p, ok = d.prices[id]; !ok {
            return repository.ErrNotFound
        }
        return nil
    })
    return p, err
}

func (c *conn) GetClientByNationalID(ctx context.Context, nationalID string) (model.Client, error) {
    var cl model.Client
    err := c.read(func(d *data) error {
        id, ok := d.clientByNID[strings.TrimSpace(nationalID)]
        if !ok {
            return repository.ErrNotFound
        }
        cl = d.clients[id]
        return nil
    })
    return cl, err
}

func (c *conn) CreateClient(ctx context.Context, cl *model.Client) error {
    return c.write(func(d *data) error {
        if _, ok := d.clientByNID[cl.NationalID]; ok {
            return repository.ErrDuplicate
        }
        cl.ID = d.nextID()
        cl.Email = strings.ToLower(strings.TrimSpace(cl.Email))
        cl.CreatedAt = time.Now().UTC()
        d.clients[cl.ID] = *cl
        d.clientByNID[cl.NationalID] = cl.ID
        return nil
    })
}

func (c *conn) CreateReservation(ctx context.Context, r *model.Reservation) error {
    return c.write(func(d *data) error {
        if _, ok := d.clients[r.ClientID]; !ok {
            return repository.ErrNotFound
        }
        if _, ok := d.prices[r.PriceID]; !ok {
            return repository.ErrNotFound
        }
        if r.State == "" {
            r.State = model.StatePending
        }
        if r.CreatedAt.IsZero() {
            r.CreatedAt = time.Now().UTC()
        }
        r.ID = d.nextID()
        stored := *r
        stored.SectorName, stored.UnitPrice, stored.ClientNationalID = "", decimal.Decimal{}, ""
        d.reservations[r.ID] = stored
        return nil
    })
}

// hydrate fills the joined fields the MySQL store reads from precios and
// clientes.
func (d *data) hydrate(r model.Reservation) model.Reservation {
    if p, ok := d.prices[r.PriceID]; ok {
        r.SectorName = p.SectorName
        r.UnitPrice = p.UnitPrice
    }
    if cl, ok := d.clients[r.ClientID]; ok {
        r.ClientNationalID = cl.NationalID
    }
    return r
}

func (c *conn) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
    var r model.Reservation
    err := c.read(func(d *data) error {
        stored, ok := d.reservations[id]
        if !ok {
            return repository.ErrNotFound
        }
        r = d.hydrate(stored)
        return nil
    })
    return r, err
}

// LockReservation needs no extra locking: inside InTx the caller already
// holds txMu.
func (c *conn) LockReservation(ctx context.Context, id uint64) (model.Reservation, error) {
    return c.GetReservation(ctx, id)
}

func (c *conn) UpdateReservationState(ctx context.Context, id uint64, state model.PaymentState) error {
    return c.write(func(d *data) error {
        r, ok := d.reservations[id]
        if !ok {
            return repository.ErrNotFound
        }
        r.State = state
        d.reservations[id] = r
        return nil
    })
}

func newestFirst(rs []model.Reservation) {
    sort.Slice(rs, func(i, j int) bool {
        if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
            return rs[i].CreatedAt.After(rs[j].CreatedAt)
        }
        return rs[i].ID > rs[j].ID
    })
}

func (c *conn) ListReservationsByNationalID(ctx context.Context, nationalID string) ([]model.Reservation, error) {
    out := make([]model.Reservation, 0)
    err := c.read(func(d *data) error {
        clientID, ok := d.clientByNID[strings.TrimSpace(nationalID)]
        if !ok {
            return nil
        }
        for _, r := range d.reservations {
            if r.ClientID == clientID {
                out = append(out, d.hydrate(r))
            }
        }
        return nil
    })
    newestFirst(out)
    return out, err
}

func (c *conn) SearchReservationsByFamilyName(ctx context.Context, fragment string) ([]model.Reservation, error) {
    needle := strings.ToLower(strings.TrimSpace(fragment))
    out := make([]model.Reservation, 0)
    err := c.read(func(d *data) error {
        for _, r := range d.reservations {
            if strings.Contains(strings.ToLower(r.FamilyFullName()), needle) {
                out = append(out, d.hydrate(r))
            }
        }
        return nil
    })
    sort.Slice(out, func(i, j int) bool {
        if out[i].FamilySurnames != out[j].FamilySurnames {
            return out[i].FamilySurnames < out[j].FamilySurnames
        }
        if out[i].FamilyGivenNames != out[j].FamilyGivenNames {
            return out[i].FamilyGivenNames < out[j].FamilyGivenNames
        }
        return out[i].ID < out[j].ID
    })
    return out, err
}

func (c *conn) CreatePayment(ctx context.Context, p *model.PaymentEvent) error {
    return c.write(func(d *data) error {
        if _, ok := d.reservations[p.ReservationID]; !ok {
            return repository.ErrNotFound
        }
        now := time.Now().UTC()
        if p.PaidAt.IsZero() {
            p.PaidAt = now
        }
        p.ID = d.nextID()
        p.CreatedAt = now
        d.payments = append(d.payments, *p)
        return nil
    })
}

func (c *conn) SumPayments(ctx context.Context, reservationID uint64) (decimal.Decimal, error) {
    total := decimal.Zero
    err := c.read(func(d *data) error {
        for _, p := range d.payments {
            if p.ReservationID == reservationID {
                total = total.Add(p.Amount)
            }
        }
        return nil
    })
    return total, err
}

func (c *conn) ListPayments(ctx context.Context, reservationID uint64) ([]model.PaymentEvent, error) {
    out := make([]model.PaymentEvent, 0)
    err := c.read(func(d *data) error {
        for _, p := range d.payments {
            if p.ReservationID == reservationID {
                out = append(out, p)
            }
        }
        return nil
    })
    return out, err
}

func (c *conn) ListVaultStock(ctx context.Context) ([]model.VaultStock, error) {
    var out []model.VaultStock
    err := c.read(func(d *data) error {
        out = append(make([]model.VaultStock, 0, len(d.vaults)), d.vaults...)
        return nil
    })
    sort.SliceStable(out, func(i, j int) bool {
        if out[i].SectorName != out[j].SectorName {
            return out[i].SectorName < out[j].SectorName
        }
        return out[i].VaultType < out[j].VaultType
    })
    return out, err
}

func (c *conn) CreateMessage(ctx context.Context, m *model.Message) error {
    return c.write(func(d *data) error {
        m.ID = d.nextID()
        m.CreatedAt = time.Now().UTC()
        m.Read = false
        d.messages[m.ID] = *m
        return nil
    })
}

func (c *conn) ListMessages(ctx context.Context, unreadOnly bool) ([]model.Message, error) {
    out := make([]model.Message, 0)
    err := c.read(func(d *data) error {
        for _, m := range d.messages {
            if unreadOnly && m.Read {
                continue
            }
            out = append(out, m)
        }
        return nil
    })
    sort.Slice(out, func(i, j int) bool {
        if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
            return out[i].CreatedAt.After(out[j].CreatedAt)
        }
        return out[i].ID > out[j].ID
    })
    return out, err
}

func (c *conn) MarkMessageRead(ctx context.Context, id uint64) error {
    return c.write(func(d *data) error {
        m, ok := d.messages[id]
        if !ok {
            return repository.ErrNotFound
        }
        m.Read = true
        d.messages[id] = m
        return nil
    })
}

var (
    _ repository.Repository = (*conn)(nil)
    _ repository.Repository = (*Store)(nil)
)
