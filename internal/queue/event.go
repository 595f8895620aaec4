// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"
)

// Event types published on the ledger queue.
const (
    EventReservationCreated = "reservation.created"
    EventStatusChanged      = "reservation.status_changed"
    EventPaymentRecorded    = "payment.recorded"
)

// LedgerEvent is published after a reservation or payment commits.  It
// carries enough information for downstream consumers to log, notify or
// feed analytics without querying the primary database.
type LedgerEvent struct {
    ID             string           `json:"id"`
    Type           string           `json:"type"`
    ReservationID  uint64           `json:"reservation_id"`
    ClientID       uint64           `json:"client_id,omitempty"`
    NationalID     string           `json:"national_id,omitempty"`
    Sector         string           `json:"sector,omitempty"`
    Amount         *decimal.Decimal `json:"amount,omitempty"`
    PendingBalance *decimal.Decimal `json:"pending_balance,omitempty"`
    State          string           `json:"state"`
    OccurredAt     time.Time        `json:"occurred_at"`
}

// NewLedgerEvent stamps an event with a fresh id and the current time.
func NewLedgerEvent(eventType string, reservationID uint64, state string) LedgerEvent {
    return LedgerEvent{
        ID:            uuid.NewString(),
        Type:          eventType,
        ReservationID: reservationID,
        State:         state,
        OccurredAt:    time.Now().UTC(),
    }
}
