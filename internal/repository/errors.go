// Package repository defines the storage contract used by the ledger
// services and its MySQL implementation.  The sentinel values below are
// shared by every implementation so that the service layer can
// distinguish a missing row from a unique-key race from a broken
// connection.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a unique key, such
// as two concurrent first-time registrations of the same cédula.  The
// client registry recovers from it by reading the winning row.
var ErrDuplicate = errors.New("duplicate record")
