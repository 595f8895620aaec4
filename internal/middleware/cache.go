package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/cementerio-ledger/internal/config"
)

// HeaderCache reports HIT or MISS on cached routes.
const HeaderCache = "X-Cache"

// cachedResponse is what gets stored under a cache key.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// bodyRecorder forwards the response to the client and keeps a copy of
// up to limit bytes.  overflow is set once the body no longer fits.
type bodyRecorder struct {
    http.ResponseWriter
    status   int
    body     bytes.Buffer
    limit    int
    overflow bool
}

func (w *bodyRecorder) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
    if !w.overflow {
        if w.limit > 0 && w.body.Len()+len(b) > w.limit {
            w.overflow = true
            w.body.Reset()
        } else {
            w.body.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

// skipHeader lists headers that belong to a single response.
func skipHeader(k string) bool {
    return strings.EqualFold(k, HeaderCache) ||
        strings.EqualFold(k, HeaderRequestID) ||
        strings.EqualFold(k, echo.HeaderContentLength)
}

// cacheKeyFrom hashes the parts selected by cfg.KeyStrategy: route_query
// (default), route, method_route or method_route_query.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", c.Path()}
    case "method_route":
        parts = []string{"method", r.Method, "route", c.Path()}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
    default:
        parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

func encodeCached(status int, header http.Header, body []byte) ([]byte, error) {
    kept := make(http.Header, len(header))
    for k, vals := range header {
        if skipHeader(k) {
            continue
        }
        kept[k] = append([]string(nil), vals...)
    }
    return json.Marshal(cachedResponse{Status: status, Header: kept, Body: body})
}

func decodeCached(bs []byte) (cachedResponse, bool) {
    var cr cachedResponse
    if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
        return cachedResponse{}, false
    }
    return cr, true
}

// NewRedisCache caches 200 responses, headers and body, in Redis for
// cfg.TTL (30s when unset).  Only attach it to routes whose data changes
// out of band, such as the price list; ledger state must always be read
// fresh.  Without a Redis client it does nothing.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            key := cacheKeyFrom(cfg, c)
            res := c.Response()

            if bs, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
                if cr, ok := decodeCached(bs); ok {
                    for k, vals := range cr.Header {
                        for _, v := range vals {
                            res.Header().Add(k, v)
                        }
                    }
                    res.Header().Set(HeaderCache, "HIT")
                    res.WriteHeader(cr.Status)
                    _, _ = res.Write(cr.Body)
                    return nil
                }
            }

            rec := &bodyRecorder{ResponseWriter: res.Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            res.Writer = rec
            res.Header().Set(HeaderCache, "MISS")
            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.overflow {
                return nil
            }
            payload, err := encodeCached(rec.status, res.Header(), rec.body.Bytes())
            if err != nil {
                return nil
            }
            // the request context may already be cancelled once the body is flushed
            _ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
            return nil
        }
    }
}
