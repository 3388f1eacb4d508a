package middleware

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/slot-booking-service/internal/config"
)

// NewRateLimiter returns a fixed-window rate limit middleware backed
// by Redis.  Each key gets cfg.Limit requests per cfg.Window; the
// counter key carries the window start so it rolls over naturally
// with its TTL.  When Redis is unavailable the middleware fails open
// and lets the request through.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            now := time.Now()
            windowStart := now.Truncate(cfg.Window)
            key := rateKey(cfg, c) + ":" + strconv.FormatInt(windowStart.Unix(), 10)

            ctx := c.Request().Context()
            count, err := rdb.Incr(ctx, key).Result()
            if err != nil {
                c.Logger().Warnf("ratelimit: redis error for key=%s: %v", key, err)
                return next(c)
            }
            if count == 1 {
                // First hit in this window; expire the counter at the
                // window boundary plus a little slack.
                _ = rdb.Expire(ctx, key, cfg.Window+time.Second).Err()
            }

            remaining := int64(cfg.Limit) - count
            if remaining < 0 {
                remaining = 0
            }
            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if count > int64(cfg.Limit) {
                retry := int(windowStart.Add(cfg.Window).Sub(now).Seconds()) + 1
                c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too_many_requests",
                    "retry_after": retry,
                })
            }
            return next(c)
        }
    }
}

// rateKey derives the counter key from the request according to the
// configured strategy.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()
    uid := contextUserID(c)

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default: // "ip_route"
        parts = append(parts, "ip", ip, "route", route)
    }
    return strings.Join(parts, ":")
}

// contextUserID returns the authenticated user id from context, or
// "anon" for unauthenticated requests.
func contextUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        if v != "" {
            return v
        }
    case float64:
        return strconv.FormatUint(uint64(v), 10)
    case uint64:
        return strconv.FormatUint(v, 10)
    }
    return "anon"
}
