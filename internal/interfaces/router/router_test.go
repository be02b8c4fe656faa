package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/infrastructure/database"
	"listinghub-backend/internal/infrastructure/identity"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type tokenVerifier map[string]identity.Identity

func (v tokenVerifier) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	id, ok := v[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return &id, nil
}

func setupRouterTest(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	app := New(Deps{
		DB:  db,
		Rdb: rdb,
		Verifier: tokenVerifier{
			"owner-token": {UID: "uid-owner", Email: "owner@example.com", Name: "Priya Shah"},
			"admin-token": {UID: "uid-admin", Email: "admin@example.com"},
		},
		Origins: []string{"http://localhost:5173"},
	})
	return app, db
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestRouter_ListingReviewFlow(t *testing.T) {
	app, db := setupRouterTest(t)

	code, _ := call(t, app, "POST", "/api/users/sync", "owner-token", nil)
	require.Equal(t, fiber.StatusOK, code)
	code, _ = call(t, app, "POST", "/api/users/sync", "admin-token", nil)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, db.Model(&domain.User{}).Where("firebase_uid = ?", "uid-admin").Update("is_admin", true).Error)

	code, body := call(t, app, "POST", "/api/listings", "owner-token", map[string]interface{}{
		"type": "temple", "title": "Sri Venkateswara Temple", "address": "1 Hill Rd", "city": "Austin", "state": "TX",
	})
	require.Equal(t, fiber.StatusCreated, code)
	id := int64(body["data"].(map[string]interface{})["listing_id"].(float64))

	code, body = call(t, app, "GET", "/api/listings", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Empty(t, body["data"])

	code, _ = call(t, app, "GET", "/api/listings/pending", "owner-token", nil)
	assert.Equal(t, fiber.StatusForbidden, code)
	code, _ = call(t, app, "GET", "/api/listings/pending", "admin-token", nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = call(t, app, "POST", "/api/listings/review-listing", "admin-token", map[string]interface{}{
		"listingId": id, "status": "approved", "comment": "Looks good",
	})
	require.Equal(t, fiber.StatusOK, code)

	code, body = call(t, app, "GET", fmt.Sprintf("/api/listings/%d", id), "", nil)
	require.Equal(t, fiber.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Sri Venkateswara Temple", data["title"])
	assert.NotContains(t, data["owner"], "email")
	assert.NotContains(t, data, "opted_in")

	code, body = call(t, app, "GET", fmt.Sprintf("/api/listings/%d", id), "owner-token", nil)
	require.Equal(t, fiber.StatusOK, code)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, "owner@example.com", data["owner"].(map[string]interface{})["email"])
	assert.Equal(t, false, data["opted_in"])

	code, body = call(t, app, "GET", "/api/users/notifications", "owner-token", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 1)

	code, _ = call(t, app, "POST", "/api/listings/favorites", "owner-token", map[string]interface{}{"listing_id": id})
	assert.Equal(t, fiber.StatusCreated, code)
	code, body = call(t, app, "GET", "/api/listings/favorites", "owner-token", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 1)
}

func TestRouter_AuthAndFallbacks(t *testing.T) {
	app, _ := setupRouterTest(t)

	code, body := call(t, app, "GET", "/api/users/profile", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "No token provided", body["error"].(map[string]interface{})["message"])

	code, _ = call(t, app, "GET", "/api/coupons/mine", "forged", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = call(t, app, "GET", "/api/coupons/approved", "", nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = call(t, app, "GET", "/api/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, body = call(t, app, "GET", "/", "", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Server is running", body["message"])
}

func TestRouter_Metrics(t *testing.T) {
	app, _ := setupRouterTest(t)
	call(t, app, "GET", "/", "", nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "listinghub_http_requests_total")
}
