package categories

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	catsvc "listinghub-backend/internal/application/categories"
	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/infrastructure/database"
	"listinghub-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCategoriesTest(t *testing.T, admin bool) *fiber.App {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	h := &Handlers{Service: &catsvc.Service{DB: db, Rdb: rdb}}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", &domain.Principal{UserID: uuid.New(), IsAdmin: admin})
		return c.Next()
	})
	app.Get("/categories", h.List)
	app.Post("/categories", middleware.RequireAdmin(), h.Create)
	return app
}

func post(t *testing.T, app *fiber.App, body interface{}) int {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/categories", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestCreateAndList(t *testing.T) {
	app := setupCategoriesTest(t, true)

	assert.Equal(t, fiber.StatusBadRequest, post(t, app, map[string]string{"name": "Music", "type": "concert"}))
	assert.Equal(t, fiber.StatusCreated, post(t, app, map[string]string{"name": "Music", "type": "event"}))
	assert.Equal(t, fiber.StatusCreated, post(t, app, map[string]string{"name": "Catering", "type": "vendor"}))

	resp, err := app.Test(httptest.NewRequest("GET", "/categories?type=event", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Music", data[0].(map[string]interface{})["name"])
}

func TestCreate_NonAdminForbidden(t *testing.T) {
	app := setupCategoriesTest(t, false)
	assert.Equal(t, fiber.StatusForbidden, post(t, app, map[string]string{"name": "Music", "type": "event"}))
}
