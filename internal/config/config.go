// Package config loads application configuration from the environment.
// A .env file in the working directory is read first when present;
// real environment variables always win over it.
package config

import (
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/spf13/viper"
)

// Store drivers accepted in STORE_DRIVER.
const (
    DriverMySQL  = "mysql"
    DriverMemory = "memory"
)

// Config holds all runtime configuration values.
type Config struct {
    App       AppConfig
    Database  DatabaseConfig
    Log       LogConfig
    Auth      AuthConfig
    Ledger    LedgerConfig
    RabbitMQ  RabbitMQConfig
    Redis     RedisConfig
    RateLimit RateLimitConfig
    Cache     CacheConfig
}

// AppConfig holds process level settings.
type AppConfig struct {
    Env         string // development, test, production
    Port        string // HTTP port to listen on
    StoreDriver string // mysql or memory
}

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
    User            string
    Pass            string
    Host            string
    Port            string
    Name            string
    MaxOpenConns    int
    MaxIdleConns    int
    ConnMaxLifetime time.Duration
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
    Level  string
    Format string
    Output string
}

// AuthConfig configures the single administrator account.  Admin login is
// disabled while AdminPasswordHash is empty.
type AuthConfig struct {
    JWTSecret         string
    AccessTTL         time.Duration
    AdminUser         string
    AdminPasswordHash string // bcrypt hash
}

// LedgerConfig tunes business validation.
type LedgerConfig struct {
    CedulaStrict bool // enforce the cédula check digit on new reservations
}

// RabbitMQConfig configures the ledger event queue.  Publishing is
// disabled while URL is empty.
type RabbitMQConfig struct {
    URL           string
    LedgerLogPath string // file the consumer appends to
}

// Load reads configuration from .env and the environment and validates it.
func Load() (*Config, error) {
    _ = godotenv.Load()

    v := viper.New()
    v.AutomaticEnv()
    setDefaults(v)

    cfg := &Config{
        App: AppConfig{
            Env:         v.GetString("APP_ENV"),
            Port:        v.GetString("APP_PORT"),
            StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
        },
        Database: DatabaseConfig{
            User:            v.GetString("DB_USER"),
            Pass:            v.GetString("DB_PASS"),
            Host:            v.GetString("DB_HOST"),
            Port:            v.GetString("DB_PORT"),
            Name:            v.GetString("DB_NAME"),
            MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
            MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
            ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
        },
        Log: LogConfig{
            Level:  v.GetString("LOG_LEVEL"),
            Format: v.GetString("LOG_FORMAT"),
            Output: v.GetString("LOG_OUTPUT"),
        },
        Auth: AuthConfig{
            JWTSecret:         v.GetString("JWT_SECRET"),
            AccessTTL:         time.Duration(v.GetInt("ACCESS_TOKEN_TTL_MIN")) * time.Minute,
            AdminUser:         v.GetString("ADMIN_USER"),
            AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
        },
        Ledger: LedgerConfig{
            CedulaStrict: v.GetBool("CEDULA_STRICT"),
        },
        RabbitMQ: RabbitMQConfig{
            URL:           v.GetString("RABBITMQ_URL"),
            LedgerLogPath: v.GetString("LEDGER_LOG_PATH"),
        },
        Redis:     loadRedisConfig(v),
        RateLimit: loadRateLimitConfig(v),
        Cache:     loadCacheConfig(v),
    }
    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("APP_ENV", "development")
    v.SetDefault("APP_PORT", "8080")
    v.SetDefault("STORE_DRIVER", DriverMySQL)
    v.SetDefault("DB_HOST", "localhost")
    v.SetDefault("DB_PORT", "3306")
    v.SetDefault("DB_MAX_OPEN_CONNS", 25)
    v.SetDefault("DB_MAX_IDLE_CONNS", 25)
    v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
    v.SetDefault("LOG_LEVEL", "info")
    v.SetDefault("LOG_OUTPUT", "stdout")
    v.SetDefault("ACCESS_TOKEN_TTL_MIN", 60)
    v.SetDefault("ADMIN_USER", "admin")
    v.SetDefault("CEDULA_STRICT", false)
    v.SetDefault("LEDGER_LOG_PATH", "logs/ledger.log")

    v.SetDefault("REDIS_ADDR", "localhost:6379")
    v.SetDefault("REDIS_DB", 0)

    v.SetDefault("RATE_LIMIT_ENABLED", true)
    v.SetDefault("RATE_LIMIT_CAPACITY", 60)
    v.SetDefault("RATE_LIMIT_REFILL_TOKENS", 1)
    v.SetDefault("RATE_LIMIT_REFILL_INTERVAL", time.Second)
    v.SetDefault("RATE_LIMIT_TTL", 10*time.Minute)
    v.SetDefault("RATE_LIMIT_KEY_STRATEGY", "ip_route")
    v.SetDefault("RATE_LIMIT_PREFIX", "rl")

    v.SetDefault("CACHE_ENABLED", true)
    v.SetDefault("CACHE_METHODS", "GET")
    v.SetDefault("CACHE_TTL", 30*time.Second)
    v.SetDefault("CACHE_KEY_STRATEGY", "route_query")
    v.SetDefault("CACHE_PREFIX", "cache")
    v.SetDefault("CACHE_MAX_BODY_BYTES", 1<<20)
}

func (c *Config) validate() error {
    if c.App.Port == "" {
        return errors.New("APP_PORT must not be empty")
    }
    switch c.App.StoreDriver {
    case DriverMySQL:
        if c.Database.User == "" || c.Database.Name == "" {
            return errors.New("DB_USER and DB_NAME are required when STORE_DRIVER=mysql")
        }
        if c.Database.MaxOpenConns <= 0 {
            return errors.New("DB_MAX_OPEN_CONNS must be positive")
        }
        if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
            c.Database.MaxIdleConns = c.Database.MaxOpenConns
        }
    case DriverMemory:
    default:
        return fmt.Errorf("unknown STORE_DRIVER %q (use mysql or memory)", c.App.StoreDriver)
    }
    if c.Auth.AdminPasswordHash != "" {
        if !strings.HasPrefix(c.Auth.AdminPasswordHash, "$2") {
            return errors.New("ADMIN_PASSWORD_HASH must be a bcrypt hash")
        }
        if c.Auth.JWTSecret == "" {
            return errors.New("JWT_SECRET is required when admin login is enabled")
        }
    }
    if c.App.Env == "production" && c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
        return errors.New("JWT_SECRET must be at least 32 characters in production")
    }
    if c.Auth.AccessTTL <= 0 {
        return errors.New("ACCESS_TOKEN_TTL_MIN must be positive")
    }
    return nil
}

// AdminEnabled reports whether admin login is configured.
func (c *Config) AdminEnabled() bool {
    return c.Auth.AdminPasswordHash != "" && c.Auth.JWTSecret != ""
}
