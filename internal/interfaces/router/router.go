package router

import (
	"context"
	"io"
	"net/http"
	"time"

	catsvc "listinghub-backend/internal/application/categories"
	couponsvc "listinghub-backend/internal/application/coupons"
	emailsvc "listinghub-backend/internal/application/emails"
	healthsvc "listinghub-backend/internal/application/health"
	listsvc "listinghub-backend/internal/application/listings"
	notifsvc "listinghub-backend/internal/application/notifications"
	uploadsvc "listinghub-backend/internal/application/uploads"
	usersvc "listinghub-backend/internal/application/users"
	"listinghub-backend/internal/config"
	"listinghub-backend/internal/infrastructure/database"
	"listinghub-backend/internal/infrastructure/identity"
	"listinghub-backend/internal/infrastructure/messaging"
	cathandler "listinghub-backend/internal/interfaces/handlers/categories"
	couponhandler "listinghub-backend/internal/interfaces/handlers/coupons"
	healthhandler "listinghub-backend/internal/interfaces/handlers/health"
	listhandler "listinghub-backend/internal/interfaces/handlers/listings"
	uploadhandler "listinghub-backend/internal/interfaces/handlers/uploads"
	userhandler "listinghub-backend/internal/interfaces/handlers/users"
	"listinghub-backend/internal/middleware"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deps is everything the routes need. Rdb, Email, Publisher and Signer are optional.
type Deps struct {
	DB             *gorm.DB
	Rdb            *redis.Client
	Verifier       identity.TokenVerifier
	Email          emailsvc.Sender
	Publisher      messaging.Publisher
	Signer         uploadsvc.Signer
	SupabaseURL    string
	Origins        []string
	HealthAdminKey string
	CategoryTTL    time.Duration
}

type sqlPinger struct {
	db *gorm.DB
}

func (p sqlPinger) PingContext(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// New builds the Fiber app and registers every route.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		JSONEncoder:             json.Marshal,
		JSONDecoder:             json.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(middleware.Tracing())
	app.Use(middleware.CORS(d.Origins))
	app.Use(middleware.Metrics())
	app.Use(middleware.HealthMarker(d.Rdb))
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{Rdb: d.Rdb, HealthAdminKey: d.HealthAdminKey}
	if d.DB != nil {
		hh.DB = sqlPinger{db: d.DB}
	}
	app.Get("/", hh.Root)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	notifier := &notifsvc.Service{DB: d.DB, Email: d.Email, Publisher: d.Publisher}
	app.Hooks().OnShutdown(func() error {
		notifier.Wait()
		if c, ok := d.Publisher.(io.Closer); ok {
			return c.Close()
		}
		return nil
	})
	users := &usersvc.Service{DB: d.DB, EmailSender: d.Email}

	auth := middleware.Authenticate(d.Verifier, users)
	optionalAuth := middleware.OptionalAuth(d.Verifier, users)
	admin := middleware.RequireAdmin()

	uh := &userhandler.Handlers{Service: users, Notifier: notifier}
	ug := app.Group("/api/users", auth)
	ug.Get("/profile", uh.Profile)
	ug.Put("/profile", uh.UpdateProfile)
	ug.Post("/sync", uh.Sync)
	ug.Get("/notifications", uh.Notifications)
	ug.Patch("/notifications/:id/read", uh.MarkRead)

	ch := &cathandler.Handlers{Service: &catsvc.Service{DB: d.DB, Rdb: d.Rdb, TTL: d.CategoryTTL}}
	app.Get("/api/categories", ch.List)
	app.Post("/api/categories", auth, admin, ch.Create)

	// static segments are registered before /:id
	lh := &listhandler.Handlers{Service: &listsvc.Service{DB: d.DB, Notifier: notifier}}
	lg := app.Group("/api/listings")
	lg.Get("/", lh.Recent)
	lg.Get("/search", optionalAuth, lh.Search)
	lg.Get("/mine", auth, lh.Mine)
	lg.Get("/pending", auth, admin, lh.Pending)
	lg.Post("/review-listing", auth, admin, lh.Review)
	lg.Get("/favorites", auth, lh.Favorites)
	lg.Post("/favorites", auth, lh.AddFavorite)
	lg.Delete("/favorites/:listing_id", auth, lh.RemoveFavorite)
	lg.Post("/notifications/opt-in", auth, lh.OptIn)
	lg.Post("/notifications/opt-out", auth, lh.OptOut)
	lg.Post("/", auth, lh.Submit)
	lg.Get("/:id", optionalAuth, lh.Get)
	lg.Put("/:id", auth, lh.Edit)

	cph := &couponhandler.Handlers{Service: &couponsvc.Service{DB: d.DB, Notifier: notifier}}
	cg := app.Group("/api/coupons")
	cg.Get("/approved", cph.Approved)
	cg.Get("/has-pending", auth, cph.HasPending)
	cg.Get("/mine", auth, cph.Mine)
	cg.Get("/pending", auth, admin, cph.Pending)
	cg.Patch("/:id/approve", auth, admin, cph.Approve)
	cg.Patch("/:id/reject", auth, admin, cph.Reject)
	cg.Post("/", auth, cph.Submit)
	cg.Put("/:id", auth, cph.Edit)

	uph := &uploadhandler.Handlers{Service: &uploadsvc.Service{Signer: d.Signer, SupabaseURL: d.SupabaseURL}}
	app.Post("/api/uploads/listing-media", auth, uph.ListingMedia)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})
	return app
}

// CreateApp opens the database and optional Redis, builds the identity verifier and
// notification transports from cfg, and returns the app with its connections.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if !cfg.IsProduction() {
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
		rdb.SetNX(context.Background(), healthsvc.KeyStartTime, time.Now().UnixMilli(), 0)
	} else {
		log.Warn().Msg("REDIS_URL not set: category cache and request stats disabled")
	}

	keys := identity.NewJWKSCache(cfg.IdentityJWKSURL, &http.Client{Timeout: 5 * time.Second}, time.Hour)
	d := Deps{
		DB:             db,
		Rdb:            rdb,
		Verifier:       identity.NewFirebaseVerifier(cfg.FirebaseProjectID, keys),
		SupabaseURL:    cfg.SupabaseURL,
		Origins:        cfg.FrontendOrigins,
		HealthAdminKey: cfg.HealthAdminKey,
		CategoryTTL:    cfg.CategoryCacheTTL,
		Signer:         &uploadsvc.StorageClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey},
	}
	if cfg.SendinblueAPIKey != "" {
		d.Email = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom, SiteURL: firstOrigin(cfg.FrontendOrigins)}
	}
	if cfg.AMQPURL != "" {
		pub, err := messaging.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Warn().Err(err).Msg("AMQP broker unreachable at startup, will redial on publish")
			pub = &messaging.AMQPPublisher{URL: cfg.AMQPURL}
		}
		d.Publisher = pub
	}
	return New(d), db, rdb, nil
}

func firstOrigin(origins []string) string {
	if len(origins) == 0 {
		return ""
	}
	return origins[0]
}

// Handler adapts the app for net/http hosts such as serverless functions.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
