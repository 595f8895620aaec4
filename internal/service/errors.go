package service

import (
    "errors"
    "fmt"
)

// Error kinds.  Every error returned by this package wraps exactly one of
// them so callers can branch with errors.Is.
var (
    // ErrValidation marks client-correctable input: malformed cédula,
    // non-positive amount, missing field, unknown state tag.
    ErrValidation = errors.New("validation failed")
    // ErrNotFound marks a missing client, reservation or message.
    ErrNotFound = errors.New("not found")
    // ErrInvalidReference marks a reservation request for an unknown price id.
    ErrInvalidReference = errors.New("invalid reference")
    // ErrInvalidState marks a payment against a cancelled reservation.
    ErrInvalidState = errors.New("invalid state")
    // ErrConflict marks a unique-key race.  The registry recovers from it
    // internally, so it only surfaces when the retry lookup also fails.
    ErrConflict = errors.New("conflict")
    // ErrStoreUnavailable marks any persistence failure.  It is never
    // retried here.
    ErrStoreUnavailable = errors.New("store unavailable")
)

// Error carries a human readable message alongside its kind and, for
// store failures, the underlying cause.
type Error struct {
    Kind    error
    Message string
    Err     error
}

func (e *Error) Error() string {
    if e.Err != nil {
        return fmt.Sprintf("%s: %v", e.Message, e.Err)
    }
    return e.Message
}

func (e *Error) Unwrap() []error {
    if e.Err != nil {
        return []error{e.Kind, e.Err}
    }
    return []error{e.Kind}
}

func validationError(format string, args ...any) error {
    return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...any) error {
    return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func storeError(op string, err error) error {
    return &Error{Kind: ErrStoreUnavailable, Message: op, Err: err}
}

// Message returns the user facing text of err.  Store failures are
// reduced to a generic message so driver details never reach clients.
func Message(err error) string {
    var e *Error
    if errors.As(err, &e) {
        if errors.Is(e.Kind, ErrStoreUnavailable) {
            return "error de base de datos"
        }
        return e.Message
    }
    return "error interno"
}
