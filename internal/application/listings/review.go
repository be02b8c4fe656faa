package listings

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

type ReviewInput struct {
	ListingID       int64
	Status          string
	Comment         string
	RejectionReason string
}

// Review applies an admin decision to a pending listing, appends a review record
// and notifies the submitter.
func (s *Service) Review(ctx context.Context, p *domain.Principal, in ReviewInput) (*domain.Listing, error) {
	if p == nil || !p.IsAdmin {
		return nil, ErrAdminRequired
	}
	decision := strings.ToLower(strings.TrimSpace(in.Status))
	if decision != domain.StatusApproved && decision != domain.StatusRejected {
		return nil, ErrInvalidDecision
	}
	reason := strings.TrimSpace(in.RejectionReason)
	if decision == domain.StatusRejected && reason == "" {
		return nil, ErrRejectionReasonRequired
	}
	comment := optional(in.Comment)

	var (
		listing domain.Listing
		notice  *notifsvc.Notice
	)
	now := time.Now().UTC()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", in.ListingID).First(&listing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		if listing.Status != domain.StatusPending {
			return &StateError{Status: listing.Status}
		}

		if err := tx.Create(&domain.ListingReview{
			ListingID:       listing.ListingID,
			ReviewedBy:      &p.UserID,
			Status:          decision,
			Comment:         comment,
			RejectionReason: optional(reason),
		}).Error; err != nil {
			return fmt.Errorf("Failed to record review: %w", err)
		}

		updates := map[string]interface{}{"status": decision}
		if decision == domain.StatusApproved {
			updates["approved_by"] = p.UserID
			updates["approved_at"] = now
			updates["review_comment"] = comment
		} else {
			updates["approved_by"] = nil
			updates["approved_at"] = nil
			updates["review_comment"] = reason
		}
		// the status guard makes a concurrent second decision lose
		res := tx.Model(&domain.Listing{}).
			Where("listing_id = ? AND status = ?", listing.ListingID, domain.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("Failed to update listing: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &StateError{Status: "reviewed"}
		}

		if s.Notifier != nil {
			n, err := ownerNotice(tx, listing.UserID)
			if err != nil {
				return err
			}
			n.Type = domain.NotificationListingReviewed
			n.Message = DecisionMessage(listing.Title, decision, reason)
			n.Subject = "Your listing was " + decision
			n.Data = map[string]interface{}{"listing_id": listing.ListingID, "status": decision}
			n.Event = &messaging.ReviewDecidedEvent{
				Entity:     "listing",
				EntityID:   listing.ListingID,
				Decision:   decision,
				Reason:     reason,
				OwnerID:    listing.UserID.String(),
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

	metrics.RecordDecision("listing", decision)
	log.Info().Int64("listing_id", listing.ListingID).Str("decision", decision).Str("reviewer", p.UserID.String()).Msg("listings: review decision")
	if notice != nil {
		s.Notifier.Deliver(ctx, *notice)
	}

	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listing.ListingID).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// DecisionMessage is the fixed notification text for a listing decision.
func DecisionMessage(title, decision, reason string) string {
	if decision == domain.StatusApproved {
		return fmt.Sprintf("Your listing \"%s\" has been approved.", title)
	}
	return fmt.Sprintf("Your listing \"%s\" has been rejected. Reason: %s", title, reason)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
