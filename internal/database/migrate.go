package database

import (
    "database/sql"
    "embed"
    "errors"
    "fmt"

    "github.com/golang-migrate/migrate/v4"
    migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
    "github.com/golang-migrate/migrate/v4/source/iofs"
    "go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrator applies the embedded schema migrations.  Each file holds a
// single statement, so the DSN does not need multiStatements.
type Migrator struct {
    m   *migrate.Migrate
    log *zap.Logger
}

// NewMigrator binds the embedded migrations to db.
func NewMigrator(db *sql.DB, log *zap.Logger) (*Migrator, error) {
    if log == nil {
        log = zap.NewNop()
    }
    src, err := iofs.New(migrationFS, "migrations")
    if err != nil {
        return nil, fmt.Errorf("open embedded migrations: %w", err)
    }
    driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
    if err != nil {
        return nil, fmt.Errorf("create mysql migrate driver: %w", err)
    }
    m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
    if err != nil {
        return nil, fmt.Errorf("create migrate instance: %w", err)
    }
    return &Migrator{m: m, log: log.Named("migrate")}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
    err := mg.m.Up()
    if errors.Is(err, migrate.ErrNoChange) {
        mg.log.Info("schema up to date")
        return nil
    }
    if err != nil {
        return fmt.Errorf("migration up failed: %w", err)
    }
    v, dirty, _ := mg.m.Version()
    mg.log.Info("migrations applied", zap.Uint("version", v), zap.Bool("dirty", dirty))
    return nil
}

// Down rolls back every migration.
func (mg *Migrator) Down() error {
    err := mg.m.Down()
    if errors.Is(err, migrate.ErrNoChange) {
        mg.log.Info("no migrations to roll back")
        return nil
    }
    if err != nil {
        return fmt.Errorf("migration down failed: %w", err)
    }
    mg.log.Info("all migrations rolled back")
    return nil
}

// Version reports the current schema version.  A fresh database reports
// version 0.
func (mg *Migrator) Version() (uint, bool, error) {
    v, dirty, err := mg.m.Version()
    if errors.Is(err, migrate.ErrNilVersion) {
        return 0, false, nil
    }
    return v, dirty, err
}

// Close releases the source and database handles.  The *sql.DB passed
// to NewMigrator is closed as well.
func (mg *Migrator) Close() error {
    srcErr, dbErr := mg.m.Close()
    return errors.Join(srcErr, dbErr)
}
