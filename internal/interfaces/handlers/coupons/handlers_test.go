package coupons

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	couponsvc "listinghub-backend/internal/application/coupons"
	notifsvc "listinghub-backend/internal/application/notifications"
	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/infrastructure/database"
	"listinghub-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCouponsTest(t *testing.T) (*Handlers, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Handlers{Service: &couponsvc.Service{DB: db, Notifier: &notifsvc.Service{DB: db}}}, db
}

func seedPrincipal(t *testing.T, db *gorm.DB, admin bool) *domain.Principal {
	u := &domain.User{ExternalUID: uuid.NewString(), Email: uuid.NewString()[:8] + "@example.com", IsAdmin: admin}
	require.NoError(t, db.Create(u).Error)
	return &domain.Principal{UserID: u.UserID, ExternalUID: u.ExternalUID, Email: u.Email, IsAdmin: admin}
}

func newApp(h *Handlers, p *domain.Principal) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", p)
		return c.Next()
	})
	app.Post("/coupons", h.Submit)
	app.Get("/coupons/approved", h.Approved)
	app.Get("/coupons/has-pending", h.HasPending)
	app.Patch("/coupons/:id/approve", middleware.RequireAdmin(), h.Approve)
	app.Patch("/coupons/:id/reject", middleware.RequireAdmin(), h.Reject)
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func couponBody(code string) map[string]interface{} {
	return map[string]interface{}{
		"code":           code,
		"discount_type":  "percentage",
		"discount_value": 10,
		"start_date":     time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"),
		"expiry_date":    time.Now().UTC().AddDate(0, 2, 0).Format("2006-01-02"),
		"location":       "Dallas, TX",
	}
}

func TestSubmitAndApprove(t *testing.T) {
	h, db := setupCouponsTest(t)
	owner := seedPrincipal(t, db, false)
	admin := seedPrincipal(t, db, true)
	ownerApp := newApp(h, owner)

	code, body := send(t, ownerApp, "POST", "/coupons", couponBody("DIWALI10"))
	require.Equal(t, fiber.StatusCreated, code)
	id := body["data"].(map[string]interface{})["coupon_id"]

	code, body = send(t, ownerApp, "GET", "/coupons/has-pending", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["data"].(map[string]interface{})["hasPending"])

	path := fmt.Sprintf("/coupons/%v/approve", id)
	code, _ = send(t, ownerApp, "PATCH", path, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body = send(t, newApp(h, admin), "PATCH", path, map[string]interface{}{"comment": "looks good"})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "active", body["data"].(map[string]interface{})["status"])

	code, body = send(t, newApp(h, nil), "GET", "/coupons/approved?location=texas", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 1)
}

func TestSubmit_DuplicateCode(t *testing.T) {
	h, db := setupCouponsTest(t)
	app := newApp(h, seedPrincipal(t, db, false))

	code, _ := send(t, app, "POST", "/coupons", couponBody("ONCE"))
	require.Equal(t, fiber.StatusCreated, code)
	code, body := send(t, app, "POST", "/coupons", couponBody("ONCE"))
	assert.Equal(t, fiber.StatusBadRequest, code)
	e := body["error"].(map[string]interface{})
	assert.Equal(t, "Coupon code already exists", e["message"])
}

func TestReject_RequiresReason(t *testing.T) {
	h, db := setupCouponsTest(t)
	owner := seedPrincipal(t, db, false)
	admin := seedPrincipal(t, db, true)

	_, body := send(t, newApp(h, owner), "POST", "/coupons", couponBody("MAYBE"))
	id := body["data"].(map[string]interface{})["coupon_id"]
	path := fmt.Sprintf("/coupons/%v/reject", id)

	code, _ := send(t, newApp(h, admin), "PATCH", path, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = send(t, newApp(h, admin), "PATCH", path, map[string]interface{}{"rejection_reason": "Too generous"})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "rejected", body["data"].(map[string]interface{})["status"])

	code, _ = send(t, newApp(h, admin), "PATCH", "/coupons/999/approve", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}
