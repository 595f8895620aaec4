package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// PaymentState is the derived balance status of a reservation.  It is
// stored on the reservations row for fast reads but is always a cache of
// Recompute over the reservation's payment history.
type PaymentState string

const (
    StatePending   PaymentState = "Pending"
    StatePartial   PaymentState = "Partial"
    StatePaid      PaymentState = "Paid"
    StateCancelled PaymentState = "Cancelled"
)

// ParsePaymentState returns the state for a recognised tag.  Tags are
// case-sensitive; "Cancelado" or "paid" are rejected.
func ParsePaymentState(s string) (PaymentState, bool) {
    st := PaymentState(s)
    return st, st.IsValid()
}

// IsValid reports whether s is one of the four recognised tags.
func (s PaymentState) IsValid() bool {
    switch s {
    case StatePending, StatePartial, StatePaid, StateCancelled:
        return true
    }
    return false
}

// AcceptsPayments reports whether recordPayment may append to a
// reservation in this state.  Cancelled is absorbing.
func (s PaymentState) AcceptsPayments() bool {
    return s.IsValid() && s != StateCancelled
}

func (s PaymentState) String() string { return string(s) }

// rank orders the payable states so progress is never reverted.
func (s PaymentState) rank() int {
    switch s {
    case StatePartial:
        return 1
    case StatePaid:
        return 2
    }
    return 0
}

// Recompute derives the payment state from the committed totals alone.
// Nothing paid is Pending, anything short of the due amount is Partial,
// and reaching or exceeding it is Paid.
func Recompute(totalPaid, totalDue decimal.Decimal) PaymentState {
    switch {
    case totalPaid.Sign() <= 0:
        return StatePending
    case totalPaid.GreaterThanOrEqual(totalDue):
        return StatePaid
    default:
        return StatePartial
    }
}

// NextState applies a freshly committed total to the current state.  The
// result never ranks below current: once Partial or Paid, the reservation
// does not fall back even if the due amount was changed underneath it.
// Cancelled is returned unchanged.
func NextState(current PaymentState, totalPaid, totalDue decimal.Decimal) PaymentState {
    if current == StateCancelled {
        return current
    }
    next := Recompute(totalPaid, totalDue)
    if next.rank() < current.rank() {
        return current
    }
    return next
}

// PendingBalance returns max(0, due - paid).
func PendingBalance(totalPaid, totalDue decimal.Decimal) decimal.Decimal {
    rest := totalDue.Sub(totalPaid)
    if rest.Sign() < 0 {
        return decimal.Zero
    }
    return rest
}

// Reservation binds a client and a deceased family member to a priced
// sector.
//
// Fields:
//  ID               – primary key identifier.
//  ClientID         – client who made the reservation.
//  FamilyGivenNames – given names of the family member.
//  FamilySurnames   – surnames of the family member.
//  PriceID          – price entry (sector) being reserved.
//  State            – derived payment state.
//  CreatedAt        – creation timestamp.
//
// SectorName, UnitPrice and ClientNationalID are filled from joins for
// display and are not stored on the reservations row.
type Reservation struct {
    ID               uint64          `json:"id"`
    ClientID         uint64          `json:"clienteId"`
    FamilyGivenNames string          `json:"nombresFamiliar"`
    FamilySurnames   string          `json:"apellidosFamiliar"`
    PriceID          uint64          `json:"precioId"`
    State            PaymentState    `json:"estadoPago"`
    CreatedAt        time.Time       `json:"fechaReserva"`
    SectorName       string          `json:"sector"`
    UnitPrice        decimal.Decimal `json:"precio"`
    ClientNationalID string          `json:"cedula,omitempty"`
}

// FamilyFullName joins the family member's names for display.
func (r Reservation) FamilyFullName() string {
    switch {
    case r.FamilyGivenNames == "":
        return r.FamilySurnames
    case r.FamilySurnames == "":
        return r.FamilyGivenNames
    }
    return r.FamilyGivenNames + " " + r.FamilySurnames
}

// PaymentEvent is a single installment recorded against a reservation.
// Rows are append-only; ID order is insertion order.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation the payment belongs to.
//  Amount        – amount paid, always positive.
//  PaidAt        – caller supplied payment date, display only.
//  CreatedAt     – insertion timestamp.
type PaymentEvent struct {
    ID            uint64          `json:"id"`
    ReservationID uint64          `json:"reservaId"`
    Amount        decimal.Decimal `json:"monto"`
    PaidAt        time.Time       `json:"fechaPago"`
    CreatedAt     time.Time       `json:"fechaRegistro"`
}
