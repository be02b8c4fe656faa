package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	notifsvc "listinghub-backend/internal/application/notifications"
	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/infrastructure/metrics"
	"listinghub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrCouponNotFound          = errors.New("Coupon not found")
	ErrListingNotFound         = errors.New("Listing not found")
	ErrForbidden               = errors.New("You do not have permission to modify this coupon")
	ErrListingForbidden        = errors.New("You can only attach coupons to your own listings")
	ErrAdminRequired           = errors.New("Admin access required")
	ErrDuplicateCode           = errors.New("Coupon code already exists")
	ErrInvalidDiscountType     = errors.New("discount_type must be percentage or fixed")
	ErrInvalidDiscountValue    = errors.New("discount_value must be greater than 0")
	ErrPercentageTooLarge      = errors.New("Percentage discount cannot exceed 100")
	ErrInvalidDate             = errors.New("Invalid date, expected YYYY-MM-DD or RFC3339")
	ErrDateOrder               = errors.New("start_date must be on or before expiry_date")
	ErrRejectionReasonRequired = errors.New("Rejection reason is required")
)

// StateError reports a decision on a coupon that is no longer pending.
type StateError struct {
	Status string
}

func (e *StateError) Error() string {
	return "Coupon is already " + e.Status
}

// Service implements coupon submission, queries and review.
type Service struct {
	DB       *gorm.DB
	Notifier *notifsvc.Service
}

type CouponInput struct {
	Code              string   `json:"code" validate:"required,max=50"`
	Description       string   `json:"description"`
	DiscountType      string   `json:"discount_type" validate:"required"`
	DiscountValue     float64  `json:"discount_value"`
	MinPurchaseAmount *float64 `json:"min_purchase_amount" validate:"omitempty,gte=0"`
	MaxUsage          *int     `json:"max_usage" validate:"omitempty,gte=1"`
	StartDate         string   `json:"start_date" validate:"required"`
	ExpiryDate        string   `json:"expiry_date" validate:"required"`
	Location          string   `json:"location"`
	ListingID         *int64   `json:"listing_id"`

	start, expiry time.Time
}

func (in *CouponInput) validate() error {
	in.Code = strings.TrimSpace(in.Code)
	in.Location = strings.TrimSpace(in.Location)
	in.DiscountType = strings.ToLower(strings.TrimSpace(in.DiscountType))
	if in.DiscountType == "fixed_amount" {
		in.DiscountType = domain.DiscountFixed
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.DiscountType != domain.DiscountPercentage && in.DiscountType != domain.DiscountFixed {
		return ErrInvalidDiscountType
	}
	if in.DiscountValue <= 0 {
		return ErrInvalidDiscountValue
	}
	if in.DiscountType == domain.DiscountPercentage && in.DiscountValue > 100 {
		return ErrPercentageTooLarge
	}
	var err error
	if in.start, err = parseDate(in.StartDate); err != nil {
		return err
	}
	if in.expiry, err = parseDate(in.ExpiryDate); err != nil {
		return err
	}
	if in.start.After(in.expiry) {
		return ErrDateOrder
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, ErrInvalidDate
}

// checkListing verifies the attached listing exists and belongs to the caller.
func checkListing(tx *gorm.DB, p *domain.Principal, listingID *int64) error {
	if listingID == nil {
		return nil
	}
	var l domain.Listing
	if err := tx.Select("listing_id", "user_id").Where("listing_id = ?", *listingID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if !p.CanModify(l.UserID) {
		return ErrListingForbidden
	}
	return nil
}

func codeTaken(tx *gorm.DB, code string, except int64) (bool, error) {
	var n int64
	err := tx.Model(&domain.Coupon{}).Where("code = ? AND coupon_id <> ?", code, except).Count(&n).Error
	return n > 0, err
}

// isDuplicate catches a unique violation that slipped past the pre-check.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE") || strings.Contains(msg, "duplicate") || strings.Contains(msg, "23505")
}

// Submit creates a pending coupon and its first review record.
func (s *Service) Submit(ctx context.Context, p *domain.Principal, in CouponInput) (*domain.Coupon, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	coupon := &domain.Coupon{
		Code:              in.Code,
		Description:       in.Description,
		DiscountType:      in.DiscountType,
		DiscountValue:     in.DiscountValue,
		MinPurchaseAmount: in.MinPurchaseAmount,
		MaxUsage:          in.MaxUsage,
		StartDate:         in.start,
		ExpiryDate:        in.expiry,
		Location:          in.Location,
		Status:            domain.StatusPending,
		UserID:            p.UserID,
		ListingID:         in.ListingID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkListing(tx, p, in.ListingID); err != nil {
			return err
		}
		taken, err := codeTaken(tx, in.Code, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateCode
		}
		if err := tx.Create(coupon).Error; err != nil {
			if isDuplicate(err) {
				return ErrDuplicateCode
			}
			return fmt.Errorf("Failed to create coupon: %w", err)
		}
		return tx.Create(&domain.CouponReview{CouponID: coupon.CouponID, Status: domain.StatusPending}).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordSubmission("coupon", "submit")
	log.Info().Int64("coupon_id", coupon.CouponID).Str("code", coupon.Code).Msg("coupons: submitted for review")
	return coupon, nil
}

// Edit replaces a coupon's terms. Active and rejected coupons go back to pending review.
func (s *Service) Edit(ctx context.Context, p *domain.Principal, couponID int64, in CouponInput) (*domain.Coupon, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var (
		coupon   domain.Coupon
		previous string
		notice   *notifsvc.Notice
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("coupon_id = ?", couponID).First(&coupon).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCouponNotFound
			}
			return err
		}
		if !p.CanModify(coupon.UserID) {
			return ErrForbidden
		}
		if err := checkListing(tx, p, in.ListingID); err != nil {
			return err
		}
		taken, err := codeTaken(tx, in.Code, couponID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateCode
		}
		previous = coupon.Status

		updates := map[string]interface{}{
			"code":                in.Code,
			"description":         in.Description,
			"discount_type":       in.DiscountType,
			"discount_value":      in.DiscountValue,
			"min_purchase_amount": in.MinPurchaseAmount,
			"max_usage":           in.MaxUsage,
			"start_date":          in.start,
			"expiry_date":         in.expiry,
			"location":            in.Location,
			"listing_id":          in.ListingID,
			"status":              domain.StatusPending,
			"approved_by":         nil,
			"approved_at":         nil,
			"rejection_reason":    nil,
		}
		if err := tx.Model(&coupon).Updates(updates).Error; err != nil {
			if isDuplicate(err) {
				return ErrDuplicateCode
			}
			return fmt.Errorf("Failed to update coupon: %w", err)
		}
		if previous == domain.StatusPending {
			return nil
		}

		comment := "Resubmitted after edit"
		if err := tx.Create(&domain.CouponReview{CouponID: couponID, Status: domain.StatusPending, Comment: &comment}).Error; err != nil {
			return fmt.Errorf("Failed to record review: %w", err)
		}
		if previous == domain.StatusActive && s.Notifier != nil {
			n, err := ownerNotice(tx, coupon.UserID)
			if err != nil {
				return err
			}
			n.Type = domain.NotificationCouponPending
			n.Subject = "Your coupon is pending review"
			n.Message = fmt.Sprintf("Your coupon \"%s\" was updated and is pending review.", in.Code)
			n.Data = map[string]interface{}{"coupon_id": couponID, "status": domain.StatusPending}
			if err := s.Notifier.Record(ctx, tx, *n); err != nil {
				return err
			}
			notice = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if previous != domain.StatusPending {
		metrics.RecordSubmission("coupon", "resubmit")
	}
	if notice != nil {
		s.Notifier.Deliver(ctx, *notice)
	}
	if err := s.DB.WithContext(ctx).Where("coupon_id = ?", couponID).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ownerNotice starts a notice addressed to the owner. A missing user row leaves Email empty.
func ownerNotice(tx *gorm.DB, userID uuid.UUID) (*notifsvc.Notice, error) {
	var owner domain.User
	if err := tx.Where("user_id = ?", userID).First(&owner).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &notifsvc.Notice{UserID: userID, Email: owner.Email}, nil
}
