package model

import "github.com/shopspring/decimal"

// PriceEntry maps a cemetery sector to its unit price.  Entries are
// reference data maintained outside the ledger.
//
// Fields:
//  ID         – primary key identifier.
//  SectorName – display name of the sector.
//  UnitPrice  – price of one unit in the sector.
type PriceEntry struct {
    ID         uint64          `json:"id"`
    SectorName string          `json:"sector"`
    UnitPrice  decimal.Decimal `json:"precio"`
}

// VaultStock is one row of the external vault inventory: how many vaults
// or niches of a given type a sector holds and how many are still free.
//
// Fields:
//  ID             – primary key identifier.
//  SectorName     – sector the units belong to.
//  VaultType      – "boveda" or "nicho".
//  TotalUnits     – units built in the sector.
//  AvailableUnits – units not yet assigned.
type VaultStock struct {
    ID             uint64 `json:"id"`
    SectorName     string `json:"sector"`
    VaultType      string `json:"tipo"`
    TotalUnits     int    `json:"total"`
    AvailableUnits int    `json:"disponibles"`
}
