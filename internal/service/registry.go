package service

import (
    "context"
    "errors"
    "strings"

    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/model"
    "github.com/iliyamo/cementerio-ledger/internal/repository"
)

// Registry owns client identities keyed by cédula.
type Registry struct {
    store Store
    log   *zap.Logger
}

// NewRegistry returns a Registry.  A nil logger disables logging.
func NewRegistry(store Store, log *zap.Logger) *Registry {
    if log == nil {
        log = zap.NewNop()
    }
    return &Registry{store: store, log: log.Named("registry")}
}

// GetOrCreate returns the client with the given cédula, creating it on
// first use.  For an existing client the names and email of the request
// are ignored.  When two callers race on the same new cédula the loser's
// insert fails on the unique key and it reads the winner's row instead.
func (r *Registry) GetOrCreate(ctx context.Context, nationalID, givenNames, surnames, email string) (model.Client, error) {
    nationalID = strings.TrimSpace(nationalID)
    if !ValidCedulaFormat(nationalID) {
        return model.Client{}, validationError("cédula inválida: debe tener 10 dígitos")
    }
    existing, err := r.store.GetClientByNationalID(ctx, nationalID)
    if err == nil {
        return existing, nil
    }
    if !errors.Is(err, repository.ErrNotFound) {
        return model.Client{}, storeError("no se pudo consultar el cliente", err)
    }

    givenNames, surnames = strings.TrimSpace(givenNames), strings.TrimSpace(surnames)
    if givenNames == "" || surnames == "" {
        return model.Client{}, validationError("nombres y apellidos del cliente son obligatorios")
    }
    c := model.Client{
        GivenNames: givenNames,
        Surnames:   surnames,
        NationalID: nationalID,
        Email:      email,
    }
    err = r.store.CreateClient(ctx, &c)
    switch {
    case err == nil:
        r.log.Info("client registered", zap.Uint64("client_id", c.ID), zap.String("national_id", nationalID))
        return c, nil
    case errors.Is(err, repository.ErrDuplicate):
        winner, lerr := r.store.GetClientByNationalID(ctx, nationalID)
        if lerr != nil {
            return model.Client{}, &Error{Kind: ErrConflict, Message: "registro concurrente del cliente", Err: lerr}
        }
        r.log.Debug("client registration raced, reusing existing row", zap.Uint64("client_id", winner.ID))
        return winner, nil
    default:
        return model.Client{}, storeError("no se pudo registrar el cliente", err)
    }
}

// FindByNationalID returns the client or ErrNotFound.
func (r *Registry) FindByNationalID(ctx context.Context, nationalID string) (model.Client, error) {
    nationalID = strings.TrimSpace(nationalID)
    if !ValidCedulaFormat(nationalID) {
        return model.Client{}, validationError("cédula inválida: debe tener 10 dígitos")
    }
    c, err := r.store.GetClientByNationalID(ctx, nationalID)
    if errors.Is(err, repository.ErrNotFound) {
        return model.Client{}, notFoundError("no existe un cliente con la cédula %s", nationalID)
    }
    if err != nil {
        return model.Client{}, storeError("no se pudo consultar el cliente", err)
    }
    return c, nil
}
