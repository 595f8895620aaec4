package model

import "time"

// Client represents a row in the `clientes` table.  A client is created
// lazily the first time a national ID reserves a sector and is reused
// for every later reservation with the same cédula.
//
// Fields:
//  ID         – primary key identifier.
//  GivenNames – client given names.
//  Surnames   – client surnames.
//  NationalID – unique 10 digit cédula.
//  Email      – contact email.
//  CreatedAt  – creation timestamp.
type Client struct {
    ID         uint64    `json:"id"`
    GivenNames string    `json:"nombres"`
    Surnames   string    `json:"apellidos"`
    NationalID string    `json:"cedula"`
    Email      string    `json:"email"`
    CreatedAt  time.Time `json:"fechaRegistro"`
}

// FullName joins given names and surnames.
func (c Client) FullName() string {
    if c.Surnames == "" {
        return c.GivenNames
    }
    return c.GivenNames + " " + c.Surnames
}
