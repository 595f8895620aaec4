package service

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/cementerio-ledger/internal/model"
)

// FamilyMatch is one buried or reserved family member found by a search.
type FamilyMatch struct {
    ReservationID uint64             `json:"reservaId"`
    FullName      string             `json:"nombreCompleto"`
    Sector        string             `json:"sector"`
    State         model.PaymentState `json:"estadoPago"`
    ReservedAt    string             `json:"fechaReserva"`
}

// FamilySearchResult is always success-shaped; Found is false and
// Message explains why when nothing matched.
type FamilySearchResult struct {
    Found   bool          `json:"encontrado"`
    Message string        `json:"mensaje"`
    Matches []FamilyMatch `json:"familiares"`
}

// VaultAvailability lists vault stock per sector and the overall count.
type VaultAvailability struct {
    Sectors        []model.VaultStock `json:"sectores"`
    TotalAvailable int                `json:"totalDisponibles"`
}

// DebtSummary is the outstanding balance of a client over every
// reservation that is not cancelled.
type DebtSummary struct {
    NationalID   string          `json:"cedula"`
    Registered   bool            `json:"registrado"`
    Reservations int             `json:"reservas"`
    Debt         model.Money     `json:"deuda"`
    Message      string          `json:"mensaje"`
}

// Queries answers the read-only questions asked by the chatbot and the
// public site by composing the registry, the ledger and the recorder.
// It never writes.
type Queries struct {
    store    Store
    registry *Registry
    ledger   *Ledger
    recorder *Recorder
}

func NewQueries(store Store, registry *Registry, ledger *Ledger, recorder *Recorder) *Queries {
    return &Queries{store: store, registry: registry, ledger: ledger, recorder: recorder}
}

// SearchFamilyByNationalID lists the family members reserved by the
// client with the given cédula.
func (q *Queries) SearchFamilyByNationalID(ctx context.Context, nationalID string) (FamilySearchResult, error) {
    nationalID = strings.TrimSpace(nationalID)
    rs, err := q.ledger.FindByClientNationalID(ctx, nationalID)
    if err != nil {
        return FamilySearchResult{}, err
    }
    if len(rs) == 0 {
        return notFoundResult(fmt.Sprintf("No se encontraron familiares registrados para la cédula %s.", nationalID)), nil
    }
    return matchesResult(rs), nil
}

// SearchFamilyByName matches fragment case-insensitively against the
// family member's given names, surnames or both joined by a space.
func (q *Queries) SearchFamilyByName(ctx context.Context, fragment string) (FamilySearchResult, error) {
    fragment = strings.TrimSpace(fragment)
    if fragment == "" {
        return FamilySearchResult{}, validationError("campo requerido: nombre")
    }
    rs, err := q.store.SearchReservationsByFamilyName(ctx, fragment)
    if err != nil {
        return FamilySearchResult{}, storeError("no se pudo buscar el familiar", err)
    }
    if len(rs) == 0 {
        return notFoundResult(fmt.Sprintf("No se encontraron familiares con el nombre \"%s\".", fragment)), nil
    }
    return matchesResult(rs), nil
}

func notFoundResult(msg string) FamilySearchResult {
    return FamilySearchResult{Message: msg, Matches: []FamilyMatch{}}
}

func matchesResult(rs []model.Reservation) FamilySearchResult {
    out := FamilySearchResult{Found: true, Matches: make([]FamilyMatch, 0, len(rs))}
    for _, r := range rs {
        out.Matches = append(out.Matches, FamilyMatch{
            ReservationID: r.ID,
            FullName:      r.FamilyFullName(),
            Sector:        r.SectorName,
            State:         r.State,
            ReservedAt:    r.CreatedAt.Format("2006-01-02"),
        })
    }
    if len(rs) == 1 {
        out.Message = "Se encontró 1 familiar."
    } else {
        out.Message = fmt.Sprintf("Se encontraron %d familiares.", len(rs))
    }
    return out
}

// ListAvailableVaults returns the vault inventory per sector.
func (q *Queries) ListAvailableVaults(ctx context.Context) (VaultAvailability, error) {
    stock, err := q.store.ListVaultStock(ctx)
    if err != nil {
        return VaultAvailability{}, storeError("no se pudo leer la disponibilidad de bóvedas", err)
    }
    out := VaultAvailability{Sectors: stock}
    for _, v := range stock {
        out.TotalAvailable += v.AvailableUnits
    }
    return out, nil
}

// GetDebtByNationalID looks the client up in the registry and adds the
// pending balance of each payment summary, skipping cancelled
// reservations.  An unknown cédula is not an error: it reports zero debt
// with an explanatory message.
func (q *Queries) GetDebtByNationalID(ctx context.Context, nationalID string) (DebtSummary, error) {
    nationalID = strings.TrimSpace(nationalID)
    out := DebtSummary{NationalID: nationalID, Debt: model.Cents(decimal.Zero)}
    if _, err := q.registry.FindByNationalID(ctx, nationalID); err != nil {
        if errors.Is(err, ErrNotFound) {
            out.Message = fmt.Sprintf("La cédula %s no está registrada.", nationalID)
            return out, nil
        }
        return DebtSummary{}, err
    }
    out.Registered = true

    rs, err := q.ledger.FindByClientNationalID(ctx, nationalID)
    if err != nil {
        return DebtSummary{}, err
    }
    debt := decimal.Zero
    for _, r := range rs {
        if r.State == model.StateCancelled {
            continue
        }
        sum, err := q.recorder.summarize(ctx, r)
        if err != nil {
            return DebtSummary{}, err
        }
        out.Reservations++
        debt = debt.Add(sum.PendingBalance.Decimal)
    }
    out.Debt = model.Cents(debt)

    switch {
    case out.Reservations == 0:
        out.Message = "No tiene reservas activas."
    case out.Debt.IsZero():
        out.Message = "No tiene deudas pendientes. ¡Gracias por estar al día!"
    default:
        out.Message = fmt.Sprintf("Tiene una deuda pendiente de $%s en %d reserva(s).",
            out.Debt.StringFixed(2), out.Reservations)
    }
    return out, nil
}
