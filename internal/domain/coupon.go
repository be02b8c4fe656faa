package domain

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a discount offer that goes through the same review workflow as listings.
// An approved coupon has status "active".
type Coupon struct {
	CouponID          int64      `gorm:"column:coupon_id;primaryKey;autoIncrement" json:"coupon_id"`
	Code              string     `gorm:"column:code;type:varchar(50);not null;uniqueIndex" json:"code"`
	Description       string     `gorm:"column:description" json:"description"`
	DiscountType      string     `gorm:"column:discount_type;type:varchar(20);not null" json:"discount_type"`
	DiscountValue     float64    `gorm:"column:discount_value;type:decimal(10,2);not null" json:"discount_value"`
	MinPurchaseAmount *float64   `gorm:"column:min_purchase_amount;type:decimal(10,2)" json:"min_purchase_amount"`
	MaxUsage          *int       `gorm:"column:max_usage" json:"max_usage"`
	UsageCount        int        `gorm:"column:usage_count;not null;default:0" json:"usage_count"`
	StartDate         time.Time  `gorm:"column:start_date;not null" json:"start_date"`
	ExpiryDate        time.Time  `gorm:"column:expiry_date;not null;index" json:"expiry_date"`
	Location          string     `gorm:"column:location" json:"location"`
	Status            string     `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	UserID            uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ListingID         *int64     `gorm:"column:listing_id" json:"listing_id"`
	ApprovedBy        *uuid.UUID `gorm:"column:approved_by;type:uuid" json:"approved_by"`
	ApprovedAt        *time.Time `gorm:"column:approved_at" json:"approved_at"`
	RejectionReason   *string    `gorm:"column:rejection_reason" json:"rejection_reason"`
	CreatedAt         time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}
