package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// Config holds application configuration (env + Viper).
type Config struct {
	Env               string
	Port              string
	LogLevel          string
	DatabaseURL       string
	RedisURL          string
	FirebaseProjectID string // audience of ID tokens; issuer is https://securetoken.google.com/<project>
	IdentityJWKSURL   string
	FrontendOrigins   []string
	SupabaseURL       string // storage sign URLs and public URLs for listing media
	SupabaseSecretKey string // must be service_role key, not anon key
	SendinblueAPIKey  string
	MailFrom          string
	AMQPURL           string // empty disables review event publishing
	HealthAdminKey    string
	CategoryCacheTTL  time.Duration
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("IDENTITY_JWKS_URL", defaultJWKSURL)
	viper.SetDefault("FRONTEND_ORIGIN", "http://localhost:5173")
	viper.SetDefault("CATEGORY_CACHE_TTL", "5m")

	env := viper.GetString("APP_ENV")

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	ttl := viper.GetDuration("CATEGORY_CACHE_TTL")
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Config{
		Env:               env,
		Port:              viper.GetString("PORT"),
		LogLevel:          viper.GetString("LOG_LEVEL"),
		DatabaseURL:       dbURL,
		RedisURL:          viper.GetString("REDIS_URL"),
		FirebaseProjectID: viper.GetString("FIREBASE_PROJECT_ID"),
		IdentityJWKSURL:   viper.GetString("IDENTITY_JWKS_URL"),
		FrontendOrigins:   splitOrigins(viper.GetString("FRONTEND_ORIGIN")),
		SupabaseURL:       viper.GetString("SUPABASE_URL"),
		SupabaseSecretKey: viper.GetString("SUPABASE_SECRET_KEY"),
		SendinblueAPIKey:  viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:          viper.GetString("MAIL_FROM"),
		AMQPURL:           viper.GetString("AMQP_URL"),
		HealthAdminKey:    viper.GetString("HEALTH_ADMIN_KEY"),
		CategoryCacheTTL:  ttl,
	}, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
