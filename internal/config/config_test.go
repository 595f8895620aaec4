package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
    t.Setenv("STORE_DRIVER", "memory")

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, "development", cfg.App.Env)
    assert.Equal(t, "8080", cfg.App.Port)
    assert.Equal(t, DriverMemory, cfg.App.StoreDriver)
    assert.Equal(t, time.Hour, cfg.Auth.AccessTTL)
    assert.False(t, cfg.Ledger.CedulaStrict)
    assert.False(t, cfg.AdminEnabled())
    assert.Equal(t, "logs/ledger.log", cfg.RabbitMQ.LedgerLogPath)
    assert.True(t, cfg.Cache.Methods["GET"])
    assert.Equal(t, 60, cfg.RateLimit.Capacity)
}

func TestLoadOverrides(t *testing.T) {
    t.Setenv("STORE_DRIVER", "MySQL")
    t.Setenv("DB_USER", "cementerio")
    t.Setenv("DB_NAME", "ledger")
    t.Setenv("DB_MAX_OPEN_CONNS", "10")
    t.Setenv("CEDULA_STRICT", "true")
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
    t.Setenv("REDIS_HOST", "cache")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("RATE_LIMIT_BURST", "5")
    t.Setenv("CACHE_METHODS", "get, head")

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, DriverMySQL, cfg.App.StoreDriver)
    assert.Equal(t, 10, cfg.Database.MaxOpenConns)
    assert.Equal(t, 10, cfg.Database.MaxIdleConns)
    assert.True(t, cfg.Ledger.CedulaStrict)
    assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
    assert.Equal(t, "cache:6380", cfg.Redis.Addr)
    assert.Equal(t, 5, cfg.RateLimit.Capacity)
    assert.True(t, cfg.Cache.Methods["HEAD"])
}

func TestLoadValidation(t *testing.T) {
    t.Run("mysql without credentials", func(t *testing.T) {
        t.Setenv("STORE_DRIVER", "mysql")
        t.Setenv("DB_USER", "")
        _, err := Load()
        assert.Error(t, err)
    })
    t.Run("unknown driver", func(t *testing.T) {
        t.Setenv("STORE_DRIVER", "sqlite")
        _, err := Load()
        assert.Error(t, err)
    })
    t.Run("admin hash without secret", func(t *testing.T) {
        t.Setenv("STORE_DRIVER", "memory")
        t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
        t.Setenv("JWT_SECRET", "")
        _, err := Load()
        assert.Error(t, err)
    })
    t.Run("admin hash must be bcrypt", func(t *testing.T) {
        t.Setenv("STORE_DRIVER", "memory")
        t.Setenv("ADMIN_PASSWORD_HASH", "plaintext")
        t.Setenv("JWT_SECRET", "secret")
        _, err := Load()
        assert.Error(t, err)
    })
}

func TestRateLimitClamps(t *testing.T) {
    t.Setenv("STORE_DRIVER", "memory")
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "10s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, 1, cfg.RateLimit.Capacity)
    assert.Equal(t, 10*time.Second, cfg.RateLimit.RefillInterval)
    assert.Equal(t, 50*time.Second, cfg.RateLimit.TTL)
}
