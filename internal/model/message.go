package model

import "time"

// Message is a contact form submission.  It is independent of the ledger
// and only shares its database.
//
// Fields:
//  ID        – primary key identifier.
//  FullName  – sender name.
//  Email     – sender email.
//  Phone     – optional phone number.
//  Body      – message text.
//  CreatedAt – submission timestamp.
//  Read      – whether an administrator has read it.
type Message struct {
    ID        uint64    `json:"id"`
    FullName  string    `json:"nombreCompleto"`
    Email     string    `json:"email"`
    Phone     string    `json:"telefono"`
    Body      string    `json:"mensaje"`
    CreatedAt time.Time `json:"fechaEnvio"`
    Read      bool      `json:"leido"`
}
