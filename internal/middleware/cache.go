package middleware

import (
    "bytes"
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/slot-booking-service/internal/config"
)

// cacheRecorder wraps the response writer so a successful body can be
// copied into Redis after the handler runs.
type cacheRecorder struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    limit  int
}

func (r *cacheRecorder) WriteHeader(status int) {
    r.status = status
    r.ResponseWriter.WriteHeader(status)
}

func (r *cacheRecorder) Write(b []byte) (int, error) {
    if r.buf.Len()+len(b) <= r.limit {
        r.buf.Write(b)
    } else {
        // Oversized responses are served but never cached.
        r.buf.Reset()
        r.limit = -1
    }
    return r.ResponseWriter.Write(b)
}

// NewResponseCache returns a middleware that caches successful GET
// responses in Redis for cfg.TTL.  Only 200 responses smaller than
// cfg.MaxBodyBytes are stored.  Intended for public read endpoints;
// do not mount it on authenticated routes.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }

            key := cfg.Prefix + ":" + c.Request().URL.RequestURI()
            ctx := c.Request().Context()

            if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
                c.Response().Header().Set("X-Cache", "HIT")
                return c.JSONBlob(http.StatusOK, body)
            }

            rec := &cacheRecorder{
                ResponseWriter: c.Response().Writer,
                status:         http.StatusOK,
                limit:          cfg.MaxBodyBytes,
            }
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            if rec.status == http.StatusOK && rec.buf.Len() > 0 {
                // Detach from the request context so a client
                // disconnect does not abort the store.
                storeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
                defer cancel()
                if err := rdb.Set(storeCtx, key, rec.buf.Bytes(), cfg.TTL).Err(); err != nil {
                    c.Logger().Warnf("cache: store failed for key=%s: %v", key, err)
                }
            }
            return nil
        }
    }
}
