package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	healthsvc "listinghub-backend/internal/application/health"
	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/infrastructure/identity"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	switch token {
	case "user-token":
		return &identity.Identity{UID: "uid-user", Email: "user@example.com"}, nil
	case "admin-token":
		return &identity.Identity{UID: "uid-admin", Email: "admin@example.com"}, nil
	}
	return nil, identity.ErrInvalidToken
}

type stubUsers struct{}

func (stubUsers) EnsureUser(ctx context.Context, id identity.Identity) (*domain.User, error) {
	return &domain.User{UserID: uuid.New(), ExternalUID: id.UID, Email: id.Email, IsAdmin: id.UID == "uid-admin"}, nil
}

type failingUsers struct{}

func (failingUsers) EnsureUser(ctx context.Context, id identity.Identity) (*domain.User, error) {
	return nil, errors.New("Failed to look up user: connection refused")
}

func authApp() *fiber.App {
	app := fiber.New()
	auth := Authenticate(stubVerifier{}, stubUsers{})
	app.Get("/me", auth, func(c *fiber.Ctx) error {
		return c.SendString(GetPrincipal(c).Email)
	})
	app.Post("/admin", auth, RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/search", OptionalAuth(stubVerifier{}, stubUsers{}), func(c *fiber.Ctx) error {
		if GetPrincipal(c) == nil {
			return c.SendString("anonymous")
		}
		return c.SendString("known")
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, token string) (int, string) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthenticate(t *testing.T) {
	app := authApp()

	code, body := do(t, app, "GET", "/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Contains(t, body, "No token provided")

	code, body = do(t, app, "GET", "/me", "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Contains(t, body, "Invalid token")

	code, body = do(t, app, "GET", "/me", "user-token")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "user@example.com", body)
}

func TestAuthenticate_StoreFailureIs500(t *testing.T) {
	app := fiber.New()
	app.Get("/me", Authenticate(stubVerifier{}, failingUsers{}), func(c *fiber.Ctx) error {
		return c.SendString("unreachable")
	})

	code, body := do(t, app, "GET", "/me", "user-token")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Contains(t, body, "Internal Server Error")
	assert.NotContains(t, body, "connection refused")

	// a bad token is still a 401 even when the store is down
	code, _ = do(t, app, "GET", "/me", "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestRequireAdmin(t *testing.T) {
	app := authApp()

	code, body := do(t, app, "POST", "/admin", "user-token")
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Contains(t, body, "Admin access required")

	code, _ = do(t, app, "POST", "/admin", "admin-token")
	assert.Equal(t, fiber.StatusOK, code)
}

func TestOptionalAuth(t *testing.T) {
	app := authApp()
	_, body := do(t, app, "GET", "/search", "")
	assert.Equal(t, "anonymous", body)
	_, body = do(t, app, "GET", "/search", "garbage")
	assert.Equal(t, "anonymous", body)
	_, body = do(t, app, "GET", "/search", "user-token")
	assert.Equal(t, "known", body)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS([]string{"https://app.example.com/"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestTracing(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", id)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, id, resp.Header.Get("X-Trace-Id"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get("X-Trace-Id"))
	assert.NoError(t, err)
}

func TestHealthMarker(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Tracing(), HealthMarker(rdb))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadGateway, "upstream") })
	app.Get("/health/json", func(c *fiber.Ctx) error { return c.SendString("skip") })

	for _, p := range []string{"/ok", "/ok", "/boom", "/health/json"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}

	ctx := context.Background()
	total, _ := rdb.Get(ctx, healthsvc.KeyReqTotal).Int()
	assert.Equal(t, 3, total)
	failed, _ := rdb.Get(ctx, healthsvc.KeyReqErrors).Int()
	assert.Equal(t, 1, failed)
	entries, err := healthsvc.ErrorLog(ctx, rdb)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/boom", entries[0]["path"])

	// nil client is a pass-through
	app2 := fiber.New()
	app2.Use(HealthMarker(nil))
	app2.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	resp, err := app2.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
