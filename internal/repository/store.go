package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so that every query can
// run inside or outside a transaction.
type dbtx interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds the SQL for every table.  inTx is true when q is a
// transaction, which enables row locking in LockReservation.
type queries struct {
    q    dbtx
    inTx bool
}

// Store is the MySQL implementation of Repository.  It is safe for
// concurrent use; all shared state lives in the database.
type Store struct {
    queries
    db *sql.DB
}

// NewStore returns a Store bound to the given pool.
func NewStore(db *sql.DB) *Store {
    return &Store{queries: queries{q: db}, db: db}
}

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// InTx runs fn inside a READ COMMITTED transaction.  The transaction is
// committed when fn returns nil and rolled back otherwise, including
// when ctx is cancelled before commit.
func (s *Store) InTx(ctx context.Context, fn func(tx Repository) error) error {
    tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&queries{q: tx, inTx: true}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

const (
    mysqlErrDuplicateEntry  = 1062
    mysqlErrNoReferencedRow = 1452
)

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
    if err == nil {
        return nil
    }
    if errors.Is(err, sql.ErrNoRows) {
        return ErrNotFound
    }
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        switch me.Number {
        case mysqlErrDuplicateEntry:
            return ErrDuplicate
        case mysqlErrNoReferencedRow:
            // a foreign key points at a client or price that does not exist
            return ErrNotFound
        }
    }
    return err
}

var (
    _ Repository = (*queries)(nil)
    _ Repository = (*Store)(nil)
)
