package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL_DEV", "postgres://dev")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres://dev", cfg.DatabaseURL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.FrontendOrigins)
	assert.Equal(t, defaultJWKSURL, cfg.IdentityJWKSURL)
	assert.Equal(t, 5*time.Minute, cfg.CategoryCacheTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ProductionDatabaseAndOrigins(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL_PROD", "postgres://prod")
	t.Setenv("FRONTEND_ORIGIN", "https://app.example.com/, https://admin.example.com")
	t.Setenv("CATEGORY_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://prod", cfg.DatabaseURL)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.FrontendOrigins)
	assert.Equal(t, 30*time.Second, cfg.CategoryCacheTTL)
}
