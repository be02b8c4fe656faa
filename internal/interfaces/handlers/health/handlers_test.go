package health

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	healthsvc "listinghub-backend/internal/application/health"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHealthHandlers(t *testing.T) (*fiber.App, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	h := &Handlers{Rdb: rdb, HealthAdminKey: "test-admin-key"}
	app := fiber.New()
	app.Get("/", h.Root)
	app.Get("/health/json", h.JSON)
	app.Get("/health/errors", h.Errors)
	app.Get("/health/reset", h.Reset)
	return app, rdb
}

func getJSON(t *testing.T, app *fiber.App, path string, out interface{}) int {
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRoot(t *testing.T) {
	app, _ := setupHealthHandlers(t)
	var body map[string]string
	assert.Equal(t, fiber.StatusOK, getJSON(t, app, "/", &body))
	assert.Equal(t, "Server is running", body["message"])
}

func TestJSON_ReportsRedis(t *testing.T) {
	app, _ := setupHealthHandlers(t)
	var body map[string]interface{}
	require.Equal(t, fiber.StatusOK, getJSON(t, app, "/health/json", &body))
	assert.Equal(t, "listinghub-api", body["service"])
	deps := body["dependencies"].(map[string]interface{})
	assert.Equal(t, "connected", deps["redis"].(map[string]interface{})["status"])
	assert.Equal(t, "disconnected", deps["database"].(map[string]interface{})["status"])
	assert.Equal(t, "issue", body["status"])
}

func TestErrors(t *testing.T) {
	app, rdb := setupHealthHandlers(t)
	require.NoError(t, rdb.LPush(context.Background(), healthsvc.KeyErrorLog, `{"path":"/api/listings","status":500}`).Err())
	var entries []map[string]interface{}
	require.Equal(t, fiber.StatusOK, getJSON(t, app, "/health/errors", &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/listings", entries[0]["path"])
}

func TestReset(t *testing.T) {
	app, rdb := setupHealthHandlers(t)
	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, healthsvc.KeyReqTotal, "7", 0).Err())

	assert.Equal(t, fiber.StatusForbidden, getJSON(t, app, "/health/reset", nil))
	assert.Equal(t, fiber.StatusForbidden, getJSON(t, app, "/health/reset?key=wrong", nil))
	assert.Equal(t, fiber.StatusOK, getJSON(t, app, "/health/reset?key=test-admin-key", nil))

	n, err := rdb.Exists(ctx, healthsvc.KeyReqTotal).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
