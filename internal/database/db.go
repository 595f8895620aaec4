package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/cementerio-ledger/internal/config"
)

// DSN builds the driver connection string.  parseTime maps DATETIME to
// time.Time and loc=UTC keeps every timestamp in UTC.
func DSN(cfg config.DatabaseConfig) string {
    mc := mysql.NewConfig()
    mc.User = cfg.User
    mc.Passwd = cfg.Pass
    mc.Net = "tcp"
    mc.Addr = cfg.Host + ":" + cfg.Port
    mc.DBName = cfg.Name
    mc.ParseTime = true
    mc.Loc = time.UTC
    mc.Params = map[string]string{"charset": "utf8mb4"}
    return mc.FormatDSN()
}

// Open connects to MySQL, applies the pool settings and verifies the
// connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
    db, err := sql.Open("mysql", DSN(cfg))
    if err != nil {
        return nil, err
    }

    db.SetMaxOpenConns(cfg.MaxOpenConns)
    db.SetMaxIdleConns(cfg.MaxIdleConns)
    if cfg.ConnMaxLifetime > 0 {
        db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
    }

    pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := db.PingContext(pingCtx); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ping mysql at %s: %w", cfg.Host, err)
    }
    return db, nil
}
