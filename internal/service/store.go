package service

import (
    "context"

    "github.com/iliyamo/cementerio-ledger/internal/queue"
    "github.com/iliyamo/cementerio-ledger/internal/repository"
)

// Store is what the services need from persistence: the repository
// operations plus a transaction boundary.  repository.Store (MySQL) and
// memstore.Store both satisfy it.  Services never cache rows between
// calls; every recomputation re-reads inside its transaction.
type Store interface {
    repository.Repository
    InTx(ctx context.Context, fn func(tx repository.Repository) error) error
}

// Publisher receives ledger events after a successful commit.
type Publisher interface {
    Publish(ctx context.Context, ev queue.LedgerEvent) error
}

// NopPublisher drops every event.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.LedgerEvent) error { return nil }
