package middleware

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/config"
)

var errBucketReply = errors.New("unexpected token bucket reply")

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// takeToken refills the bucket at KEYS[1] for whole elapsed intervals, then
// tries to take one token.  It returns {allowed, remaining, wait_ms}.
var takeToken = redis.NewScript(`
local now, cap, refill, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens, ts = tonumber(b[1]), tonumber(b[2])
if not tokens or not ts then tokens, ts = cap, now end
if every > 0 then
  local n = math.floor(math.max(0, now - ts) / every)
  if n > 0 then
    tokens = math.min(cap, tokens + n * refill)
    ts = ts + n * every
  end
end
local ok, wait = 0, 0
if tokens > 0 then
  ok, tokens = 1, tokens - 1
else
  wait = math.max(0, every - (now - ts))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

type bucketDecision struct {
    allowed   bool
    remaining int64
    wait      time.Duration
}

func takeFromBucket(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (bucketDecision, error) {
    res, err := takeToken.Run(ctx, rdb, []string{key},
        time.Now().UnixMilli(),
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        int64(cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return bucketDecision{}, err
    }
    if len(res) != 3 {
        return bucketDecision{}, errBucketReply
    }
    return bucketDecision{
        allowed:   res[0] == 1,
        remaining: res[1],
        wait:      time.Duration(res[2]) * time.Millisecond,
    }, nil
}

// retryAfterSeconds rounds a wait up to whole seconds for Retry-After.
func retryAfterSeconds(d time.Duration) int {
    if d <= 0 {
        return 0
    }
    return int((d + time.Second - 1) / time.Second)
}

// NewTokenBucket throttles requests with a token bucket per key held in
// Redis, shared by every replica.  It is a no-op when disabled or when
// rdb is nil.  Redis failures are logged and the request goes through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    if log == nil {
        log = zap.NewNop()
    }
    log = log.Named("ratelimit")
    limit := strconv.Itoa(cfg.Capacity)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            d, err := takeFromBucket(c.Request().Context(), rdb, cfg, key)
            if err != nil {
                log.Warn("bucket unavailable", zap.String("key", key), zap.Error(err))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if d.allowed {
                return next(c)
            }

            secs := retryAfterSeconds(d.wait)
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                log.Info("throttled", zap.String("key", key), zap.Duration("wait", d.wait))
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "success":     false,
                "error":       "demasiadas solicitudes, intente más tarde",
                "retry_after": secs,
            })
        }
    }
}

// buildRateKey joins cfg.Prefix with the identity parts selected by
// cfg.KeyStrategy: ip, route or ip_route (default).  There is no per-user
// strategy: the limiter runs for every request before any route level
// JWTAuth, so no subject is known yet.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    route := c.Request().Method + " " + c.Path()
    ip := clientIP(c)

    var b strings.Builder
    b.WriteString(cfg.Prefix)
    add := func(label, v string) {
        b.WriteString(":" + label + ":" + v)
    }
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        add("ip", ip)
    case "route":
        add("route", route)
    default:
        add("ip", ip)
        add("route", route)
    }
    return b.String()
}
