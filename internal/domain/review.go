package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ListingReview is an append-only audit record of a listing status transition.
// ReviewedBy is nil for records written on submission.
type ListingReview struct {
	ReviewID        int64      `gorm:"column:review_id;primaryKey;autoIncrement" json:"review_id"`
	ListingID       int64      `gorm:"column:listing_id;not null;index" json:"listing_id"`
	ReviewedBy      *uuid.UUID `gorm:"column:reviewed_by;type:uuid" json:"reviewed_by"`
	Status          string     `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Comment         *string    `gorm:"column:comment" json:"comment"`
	RejectionReason *string    `gorm:"column:rejection_reason" json:"rejection_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (ListingReview) TableName() string {
	return "listing_reviews"
}

type CouponReview struct {
	ReviewID        int64      `gorm:"column:review_id;primaryKey;autoIncrement" json:"review_id"`
	CouponID        int64      `gorm:"column:coupon_id;not null;index" json:"coupon_id"`
	ReviewedBy      *uuid.UUID `gorm:"column:reviewed_by;type:uuid" json:"reviewed_by"`
	Status          string     `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Comment         *string    `gorm:"column:comment" json:"comment"`
	RejectionReason *string    `gorm:"column:rejection_reason" json:"rejection_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (CouponReview) TableName() string {
	return "coupon_reviews"
}

// Notification is an in-app message for a user. Data carries the entity reference.
type Notification struct {
	NotificationID int64          `gorm:"column:notification_id;primaryKey;autoIncrement" json:"notification_id"`
	UserID         uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Type           string         `gorm:"column:type;type:varchar(40);not null" json:"type"`
	Message        string         `gorm:"column:message;not null" json:"message"`
	Data           datatypes.JSON `gorm:"column:data" json:"data"`
	IsRead         bool           `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
