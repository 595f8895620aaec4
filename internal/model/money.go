package model

import (
    "encoding/json"

    "github.com/shopspring/decimal"
)

// Money is a decimal amount rendered in JSON with exactly two fraction
// digits, so a balance reads "200.00" and never "200".
type Money struct {
    decimal.Decimal
}

// Cents wraps d for output.
func Cents(d decimal.Decimal) Money { return Money{d} }

func (m Money) MarshalJSON() ([]byte, error) {
    return []byte(`"` + m.StringFixed(2) + `"`), nil
}

func (r Reservation) MarshalJSON() ([]byte, error) {
    type plain Reservation
    return json.Marshal(struct {
        plain
        UnitPrice Money `json:"precio"`
    }{plain(r), Cents(r.UnitPrice)})
}

func (p PaymentEvent) MarshalJSON() ([]byte, error) {
    type plain PaymentEvent
    return json.Marshal(struct {
        plain
        Amount Money `json:"monto"`
    }{plain(p), Cents(p.Amount)})
}

func (p PriceEntry) MarshalJSON() ([]byte, error) {
    type plain PriceEntry
    return json.Marshal(struct {
        plain
        UnitPrice Money `json:"precio"`
    }{plain(p), Cents(p.UnitPrice)})
}
