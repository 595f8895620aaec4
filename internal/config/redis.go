package config

// Redis backs the rate limiter and the catalog response cache.  Both
// degrade to pass-through when the server is unreachable at startup.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/spf13/viper"
    "go.uber.org/zap"
)

// RedisConfig holds the Redis connection settings.  REDIS_HOST and
// REDIS_PORT, when both set, take precedence over REDIS_ADDR.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

func loadRedisConfig(v *viper.Viper) RedisConfig {
    rc := RedisConfig{
        Addr:     v.GetString("REDIS_ADDR"),
        Password: v.GetString("REDIS_PASSWORD"),
        DB:       v.GetInt("REDIS_DB"),
        TLS:      v.GetBool("REDIS_TLS"),
    }
    if host, port := v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT"); host != "" && port != "" {
        rc.Addr = host + ":" + port
    }
    return rc
}

// NewRedisClient connects to Redis and pings it with a short timeout.
// It returns nil when the server cannot be reached; callers treat a nil
// client as "feature disabled".
func NewRedisClient(cfg RedisConfig, log *zap.Logger) *redis.Client {
    if log == nil {
        log = zap.NewNop()
    }
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Warn("redis unavailable, rate limiting and cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
        _ = client.Close()
        return nil
    }
    return client
}
