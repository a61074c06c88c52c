package middleware

import (
    "errors"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"
    "golang.org/x/time/rate"

    "github.com/iliyamo/sports-marketplace/internal/config"
)

// tokenBucketScript refills and takes one token atomically.  It returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local intervals = math.floor(elapsed / interval_ms)
if intervals > 0 then
  tokens = math.min(capacity, tokens + intervals * refill_tokens)
  last_refill = last_refill + intervals * interval_ms
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return {allowed, tokens, retry_after_ms}
`)

// limiter decides whether the request identified by key may proceed.
type limiter interface {
    allow(c echo.Context, key string) (ok bool, remaining int64, retry time.Duration, err error)
}

// NewTokenBucket limits requests per key.  With Redis the bucket is shared
// by every instance; without it each instance keeps its own buckets in
// memory.  Redis errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    var l limiter
    if rdb != nil {
        l = &redisLimiter{cfg: cfg, rdb: rdb}
    } else {
        l = newLocalLimiter(cfg)
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            ok, remaining, retry, err := l.allow(c, key)
            if err != nil {
                log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
                return next(c)
            }
            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if !ok {
                secs := int(math.Ceil(retry.Seconds()))
                h.Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

var errUnexpectedReply = errors.New("unexpected limiter reply")

type redisLimiter struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
}

func (l *redisLimiter) allow(c echo.Context, key string) (bool, int64, time.Duration, error) {
    vals, err := tokenBucketScript.Run(c.Request().Context(), l.rdb, []string{key},
        time.Now().UnixMilli(),
        l.cfg.Capacity,
        l.cfg.RefillTokens,
        l.cfg.RefillInterval.Milliseconds(),
        int64(l.cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return false, 0, 0, err
    }
    if len(vals) != 3 {
        return false, 0, 0, errUnexpectedReply
    }
    return vals[0] == 1, vals[1], time.Duration(vals[2]) * time.Millisecond, nil
}

// localLimiter keeps one rate.Limiter per key.  Idle buckets are dropped
// once they have been unused for the configured TTL.
type localLimiter struct {
    cfg     config.RateLimitConfig
    mu      sync.Mutex
    buckets map[string]*localBucket
    swept   time.Time
}

type localBucket struct {
    lim  *rate.Limiter
    seen time.Time
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
    return &localLimiter{cfg: cfg, buckets: map[string]*localBucket{}, swept: time.Now()}
}

func (l *localLimiter) allow(_ echo.Context, key string) (bool, int64, time.Duration, error) {
    now := time.Now()
    l.mu.Lock()
    defer l.mu.Unlock()

    if now.Sub(l.swept) > l.cfg.TTL {
        for k, b := range l.buckets {
            if now.Sub(b.seen) > l.cfg.TTL {
                delete(l.buckets, k)
            }
        }
        l.swept = now
    }
    b, ok := l.buckets[key]
    if !ok {
        b = &localBucket{lim: rate.NewLimiter(rate.Limit(l.cfg.PerSecond()), l.cfg.Capacity)}
        l.buckets[key] = b
    }
    b.seen = now

    r := b.lim.ReserveN(now, 1)
    if delay := r.DelayFrom(now); delay > 0 {
        r.CancelAt(now)
        return false, 0, delay, nil
    }
    return true, int64(b.lim.TokensAt(now)), 0, nil
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", userKey(c))
    default:
        parts = append(parts, "ip", ip, "user", userKey(c), "route", c.Request().Method+" "+c.Path())
    }
    return strings.Join(parts, ":")
}
