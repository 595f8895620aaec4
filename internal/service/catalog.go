package service

import (
    "context"
    "errors"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/cementerio-ledger/internal/model"
    "github.com/iliyamo/cementerio-ledger/internal/repository"
)

// RentalThreshold is the unit price at or below which a sector is shown
// as an annual rental instead of a purchase.  It is a presentation
// heuristic, not a stored attribute.
var RentalThreshold = decimal.NewFromInt(100)

// Modalities returned by Catalog.Modality.
const (
    ModalityRental   = "arriendo"
    ModalityPurchase = "compra"
)

// Catalog reads the sector price list.
type Catalog struct {
    store Store
}

// NewCatalog returns a Catalog reading from store.
func NewCatalog(store Store) *Catalog {
    return &Catalog{store: store}
}

// ListPrices returns all price entries, cheapest first.
func (c *Catalog) ListPrices(ctx context.Context) ([]model.PriceEntry, error) {
    prices, err := c.store.ListPrices(ctx)
    if err != nil {
        return nil, storeError("no se pudo leer la lista de precios", err)
    }
    return prices, nil
}

// Get returns one price entry or ErrInvalidReference.
func (c *Catalog) Get(ctx context.Context, id uint64) (model.PriceEntry, error) {
    p, err := c.store.GetPrice(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return model.PriceEntry{}, &Error{Kind: ErrInvalidReference, Message: "el precio seleccionado no existe"}
    }
    if err != nil {
        return model.PriceEntry{}, storeError("no se pudo leer el precio", err)
    }
    return p, nil
}

// Modality classifies an entry as rental or purchase by magnitude.
func (c *Catalog) Modality(p model.PriceEntry) string {
    if p.UnitPrice.LessThanOrEqual(RentalThreshold) {
        return ModalityRental
    }
    return ModalityPurchase
}
