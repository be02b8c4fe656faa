package database

import (
	"listinghub-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM DB from DSN (Supabase/Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
}

// Models lists every table the API reads or writes, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Listing{},
		&domain.EventDetails{},
		&domain.TempleDetails{},
		&domain.VendorDetails{},
		&domain.ActivityDetails{},
		&domain.Media{},
		&domain.Category{},
		&domain.ListingCategory{},
		&domain.EventVendor{},
		&domain.TempleActivity{},
		&domain.Favorite{},
		&domain.NotificationPreference{},
		&domain.Coupon{},
		&domain.ListingReview{},
		&domain.CouponReview{},
		&domain.Notification{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
