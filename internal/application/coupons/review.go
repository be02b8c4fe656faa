package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	notifsvc "listinghub-backend/internal/application/notifications"
	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/infrastructure/messaging"
	"listinghub-backend/internal/infrastructure/metrics"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type DecisionInput struct {
	Comment         string `json:"comment"`
	RejectionReason string `json:"rejection_reason"`
}

func (s *Service) Approve(ctx context.Context, p *domain.Principal, couponID int64, in DecisionInput) (*domain.Coupon, error) {
	return s.decide(ctx, p, couponID, domain.StatusActive, in)
}

// Reject requires a non-empty rejection reason.
func (s *Service) Reject(ctx context.Context, p *domain.Principal, couponID int64, in DecisionInput) (*domain.Coupon, error) {
	return s.decide(ctx, p, couponID, domain.StatusRejected, in)
}

func (s *Service) decide(ctx context.Context, p *domain.Principal, couponID int64, status string, in DecisionInput) (*domain.Coupon, error) {
	if p == nil || !p.IsAdmin {
		return nil, ErrAdminRequired
	}
	reason := strings.TrimSpace(in.RejectionReason)
	if status == domain.StatusRejected && reason == "" {
		return nil, ErrRejectionReasonRequired
	}
	// events and metrics report coupon approval with the same vocabulary as listings
	decision := domain.StatusApproved
	if status == domain.StatusRejected {
		decision = domain.StatusRejected
	}

	var (
		coupon domain.Coupon
		notice *notifsvc.Notice
	)
	now := time.Now().UTC()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("coupon_id = ?", couponID).First(&coupon).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCouponNotFound
			}
			return err
		}
		if coupon.Status != domain.StatusPending {
			return &StateError{Status: coupon.Status}
		}

		if err := tx.Create(&domain.CouponReview{
			CouponID:        couponID,
			ReviewedBy:      &p.UserID,
			Status:          status,
			Comment:         optional(in.Comment),
			RejectionReason: optional(reason),
		}).Error; err != nil {
			return fmt.Errorf("Failed to record review: %w", err)
		}

		updates := map[string]interface{}{"status": status}
		if status == domain.StatusActive {
			updates["approved_by"] = p.UserID
			updates["approved_at"] = now
			updates["rejection_reason"] = nil
		} else {
			updates["rejection_reason"] = reason
		}
		res := tx.Model(&domain.Coupon{}).
			Where("coupon_id = ? AND status = ?", couponID, domain.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("Failed to update coupon: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &StateError{Status: "reviewed"}
		}

		if s.Notifier != nil {
			n, err := ownerNotice(tx, coupon.UserID)
			if err != nil {
				return err
			}
			n.Type = domain.NotificationCouponReviewed
			n.Message = DecisionMessage(coupon.Code, status, reason)
			n.Subject = "Your coupon was " + decision
			n.Data = map[string]interface{}{"coupon_id": couponID, "status": status}
			n.Event = &messaging.ReviewDecidedEvent{
				Entity:     "coupon",
				EntityID:   couponID,
				Decision:   decision,
				Reason:     reason,
				OwnerID:    coupon.UserID.String(),
				ReviewerID: p.UserID.String(),
				DecidedAt:  now,
			}
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

	metrics.RecordDecision("coupon", decision)
	log.Info().Int64("coupon_id", couponID).Str("status", status).Str("reviewer", p.UserID.String()).Msg("coupons: review decision")
	if notice != nil {
		s.Notifier.Deliver(ctx, *notice)
	}
	if err := s.DB.WithContext(ctx).Where("coupon_id = ?", couponID).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// DecisionMessage is the fixed notification text for a coupon decision.
func DecisionMessage(code, status, reason string) string {
	if status == domain.StatusActive {
		return fmt.Sprintf("Your coupon \"%s\" has been approved.", code)
	}
	return fmt.Sprintf("Your coupon \"%s\" has been rejected. Reason: %s", code, reason)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
