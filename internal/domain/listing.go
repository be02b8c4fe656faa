package domain

import (
	"time"

	"github.com/google/uuid"
)

// Listing is the base row shared by events, temples, vendors and activities.
type Listing struct {
	ListingID     int64      `gorm:"column:listing_id;primaryKey;autoIncrement" json:"listing_id"`
	Type          string     `gorm:"column:type;type:varchar(20);not null;index" json:"type"`
	Title         string     `gorm:"column:title;not null" json:"title"`
	Description   string     `gorm:"column:description" json:"description"`
	Address       string     `gorm:"column:address;not null" json:"address"`
	City          string     `gorm:"column:city;not null" json:"city"`
	State         string     `gorm:"column:state;not null" json:"state"`
	ZipCode       string     `gorm:"column:zip_code" json:"zip_code"`
	ContactEmail  string     `gorm:"column:contact_email" json:"contact_email"`
	ContactPhone  string     `gorm:"column:contact_phone" json:"contact_phone"`
	WebsiteURL    string     `gorm:"column:website_url" json:"website_url"`
	Status        string     `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ApprovedBy    *uuid.UUID `gorm:"column:approved_by;type:uuid" json:"approved_by"`
	ApprovedAt    *time.Time `gorm:"column:approved_at" json:"approved_at"`
	ReviewComment *string    `gorm:"column:review_comment" json:"review_comment"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

type EventDetails struct {
	ListingID     int64      `gorm:"column:listing_id;primaryKey;autoIncrement:false" json:"listing_id"`
	StartDateTime *time.Time `gorm:"column:start_date_time;index" json:"start_date_time"`
	IsFree        bool       `gorm:"column:is_free;not null;default:false" json:"is_free"`
}

func (EventDetails) TableName() string {
	return "event_details"
}

type TempleDetails struct {
	ListingID    int64  `gorm:"column:listing_id;primaryKey;autoIncrement:false" json:"listing_id"`
	Deity        string `gorm:"column:deity" json:"deity"`
	Denomination string `gorm:"column:denomination" json:"denomination"`
}

func (TempleDetails) TableName() string {
	return "temple_details"
}

type VendorDetails struct {
	ListingID    int64  `gorm:"column:listing_id;primaryKey;autoIncrement:false" json:"listing_id"`
	BusinessType string `gorm:"column:business_type" json:"business_type"`
}

func (VendorDetails) TableName() string {
	return "vendor_details"
}

type ActivityDetails struct {
	ListingID    int64  `gorm:"column:listing_id;primaryKey;autoIncrement:false" json:"listing_id"`
	ActivityType string `gorm:"column:activity_type" json:"activity_type"`
	Schedule     string `gorm:"column:schedule" json:"schedule"`
}

func (ActivityDetails) TableName() string {
	return "activity_details"
}

// Media is an image attached to a listing.
type Media struct {
	MediaID   int64   `gorm:"column:media_id;primaryKey;autoIncrement" json:"media_id"`
	ListingID int64   `gorm:"column:listing_id;not null;index" json:"listing_id"`
	MediaType string  `gorm:"column:media_type;not null;default:'image'" json:"media_type"`
	URL       string  `gorm:"column:url;not null" json:"url"`
	Caption   *string `gorm:"column:caption" json:"caption"`
}

func (Media) TableName() string {
	return "media"
}

// EventVendor links an event listing to a vendor listing.
type EventVendor struct {
	EventID  int64 `gorm:"column:event_id;primaryKey;autoIncrement:false" json:"event_id"`
	VendorID int64 `gorm:"column:vendor_id;primaryKey;autoIncrement:false" json:"vendor_id"`
}

func (EventVendor) TableName() string {
	return "event_vendors"
}

// TempleActivity links a temple listing to an activity listing.
type TempleActivity struct {
	TempleID   int64 `gorm:"column:temple_id;primaryKey;autoIncrement:false" json:"temple_id"`
	ActivityID int64 `gorm:"column:activity_id;primaryKey;autoIncrement:false" json:"activity_id"`
}

func (TempleActivity) TableName() string {
	return "temple_activities"
}

type Favorite struct {
	FavoriteID int64     `gorm:"column:favorite_id;primaryKey;autoIncrement" json:"favorite_id"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_favorites_user_listing" json:"user_id"`
	ListingID  int64     `gorm:"column:listing_id;not null;uniqueIndex:idx_favorites_user_listing" json:"listing_id"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// NotificationPreference records a user's opt-in for updates about a listing.
type NotificationPreference struct {
	PreferenceID int64     `gorm:"column:preference_id;primaryKey;autoIncrement" json:"preference_id"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_notif_pref_user_listing" json:"user_id"`
	ListingID    int64     `gorm:"column:listing_id;not null;uniqueIndex:idx_notif_pref_user_listing" json:"listing_id"`
	OptedIn      bool      `gorm:"column:opted_in;not null;default:true" json:"opted_in"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (NotificationPreference) TableName() string {
	return "notification_preferences"
}
