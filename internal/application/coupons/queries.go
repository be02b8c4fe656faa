package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/pkg/usstates"

	"github.com/google/uuid"
)

// Approved returns active coupons that have not expired. location matches the coupon's
// location text case-insensitively; a state name also matches its postal code.
func (s *Service) Approved(ctx context.Context, location string) ([]domain.Coupon, error) {
	q := s.DB.WithContext(ctx).
		Where("status = ? AND expiry_date >= ?", domain.StatusActive, time.Now().UTC())

	if loc := strings.ToLower(strings.TrimSpace(location)); loc != "" {
		code := strings.ToLower(usstates.Code(loc))
		if code != loc {
			q = q.Where("LOWER(location) LIKE ? OR LOWER(location) LIKE ?", "%"+loc+"%", "%"+code+"%")
		} else {
			q = q.Where("LOWER(location) LIKE ?", "%"+loc+"%")
		}
	}

	var rows []domain.Coupon
	if err := q.Order("expiry_date ASC").Order("coupon_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch coupons: %w", err)
	}
	return rows, nil
}

type PendingSummary struct {
	HasPending     bool  `json:"hasPending"`
	PendingCoupons int64 `json:"pendingCoupons"`
}

func (s *Service) HasPending(ctx context.Context, userID uuid.UUID) (*PendingSummary, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Coupon{}).
		Where("user_id = ? AND status = ?", userID, domain.StatusPending).
		Count(&n).Error; err != nil {
		return nil, fmt.Errorf("Failed to count coupons: %w", err)
	}
	return &PendingSummary{HasPending: n > 0, PendingCoupons: n}, nil
}

func (s *Service) Mine(ctx context.Context, userID uuid.UUID) ([]domain.Coupon, error) {
	var rows []domain.Coupon
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("coupon_id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch coupons: %w", err)
	}
	return rows, nil
}

// PendingCoupon is a coupon in the admin review queue.
type PendingCoupon struct {
	domain.Coupon
	LatestComment *string   `json:"latest_review_comment"`
	Submitter     Submitter `json:"submitter"`
}

type Submitter struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	ExternalUID string    `json:"firebase_uid"`
}

// Pending returns every pending coupon, oldest first.
func (s *Service) Pending(ctx context.Context) ([]PendingCoupon, error) {
	db := s.DB.WithContext(ctx)
	var rows []domain.Coupon
	if err := db.Where("status = ?", domain.StatusPending).
		Order("created_at ASC").Order("coupon_id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch pending coupons: %w", err)
	}
	out := make([]PendingCoupon, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, len(rows))
	userIDs := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.CouponID
		userIDs[i] = r.UserID
	}

	var reviews []domain.CouponReview
	if err := db.Where("coupon_id IN ?", ids).
		Order("created_at DESC").Order("review_id DESC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch reviews: %w", err)
	}
	latest := make(map[int64]*string, len(ids))
	for _, r := range reviews {
		if _, seen := latest[r.CouponID]; !seen {
			latest[r.CouponID] = r.Comment
		}
	}

	var users []domain.User
	if err := db.Where("user_id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch submitters: %w", err)
	}
	byID := make(map[uuid.UUID]domain.User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	for i, r := range rows {
		u := byID[r.UserID]
		out[i] = PendingCoupon{
			Coupon:        r,
			LatestComment: latest[r.CouponID],
			Submitter:     Submitter{UserID: r.UserID, Email: u.Email, ExternalUID: u.ExternalUID},
		}
	}
	return out, nil
}
