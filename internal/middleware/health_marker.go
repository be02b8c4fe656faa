package middleware

import (
	"strings"
	"time"

	healthsvc "listinghub-backend/internal/application/health"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthMarker counts requests and response times in Redis and keeps a short log of 5xx
// responses. Health routes and / are not counted. A nil client disables it.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if rdb == nil || path == "/" || strings.HasPrefix(path, "/health") || path == "/metrics" || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		ctx := c.UserContext()
		start := time.Now()
		last, _ := json.Marshal(map[string]interface{}{
			"time":   start.UTC(),
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		})
		pipe := rdb.Pipeline()
		pipe.Set(ctx, healthsvc.KeyLastReq, last, 0)
		pipe.Incr(ctx, healthsvc.KeyReqTotal)
		_, _ = pipe.Exec(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// not yet rendered by the error handler
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		pipe = rdb.Pipeline()
		pipe.Incr(ctx, healthsvc.KeyResCount)
		pipe.IncrByFloat(ctx, healthsvc.KeyResTime, float64(time.Since(start).Milliseconds()))
		if status >= 500 {
			entry, _ := json.Marshal(map[string]interface{}{
				"time":     time.Now().UTC(),
				"method":   c.Method(),
				"path":     c.OriginalURL(),
				"status":   status,
				"trace_id": GetTraceID(c),
			})
			pipe.Incr(ctx, healthsvc.KeyReqErrors)
			pipe.LPush(ctx, healthsvc.KeyErrorLog, entry)
			pipe.LTrim(ctx, healthsvc.KeyErrorLog, 0, healthsvc.ErrorLogSize-1)
		}
		_, _ = pipe.Exec(ctx)
		return err
	}
}
