package database

import (
    "io/fs"
    "strings"
    "testing"

    "github.com/go-sql-driver/mysql"
    "github.com/golang-migrate/migrate/v4/source/iofs"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cementerio-ledger/internal/config"
)

func TestDSN(t *testing.T) {
    dsn := DSN(config.DatabaseConfig{User: "app", Pass: "p@ss", Host: "db", Port: "3306", Name: "cementerio"})
    mc, err := mysql.ParseDSN(dsn)
    require.NoError(t, err)
    assert.Equal(t, "app", mc.User)
    assert.Equal(t, "p@ss", mc.Passwd)
    assert.Equal(t, "db:3306", mc.Addr)
    assert.Equal(t, "cementerio", mc.DBName)
    assert.True(t, mc.ParseTime)
    assert.Equal(t, "UTC", mc.Loc.String())
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
    entries, err := fs.ReadDir(migrationFS, "migrations")
    require.NoError(t, err)

    ups, downs := map[string]bool{}, map[string]bool{}
    for _, e := range entries {
        name := e.Name()
        switch {
        case strings.HasSuffix(name, ".up.sql"):
            ups[strings.TrimSuffix(name, ".up.sql")] = true
        case strings.HasSuffix(name, ".down.sql"):
            downs[strings.TrimSuffix(name, ".down.sql")] = true
        }
    }
    assert.NotEmpty(t, ups)
    assert.Equal(t, ups, downs)

    src, err := iofs.New(migrationFS, "migrations")
    require.NoError(t, err)
    first, err := src.First()
    require.NoError(t, err)
    assert.Equal(t, uint(1), first)
}

func TestMigrationsAreSingleStatement(t *testing.T) {
    entries, err := fs.ReadDir(migrationFS, "migrations")
    require.NoError(t, err)
    for _, e := range entries {
        body, err := fs.ReadFile(migrationFS, "migrations/"+e.Name())
        require.NoError(t, err)
        stmt := strings.TrimSpace(string(body))
        assert.Equal(t, 1, strings.Count(stmt, ";"), e.Name())
        assert.True(t, strings.HasSuffix(stmt, ";"), e.Name())
    }
}
