package listings

import (
	"context"
	"errors"
	"fmt"
	"sort"
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
	ErrListingNotFound         = errors.New("Listing not found")
	ErrForbidden               = errors.New("You do not have permission to modify this listing")
	ErrAdminRequired           = errors.New("Admin access required")
	ErrInvalidCategory         = errors.New("Invalid category_id")
	ErrInvalidMedia            = errors.New("Invalid media URL")
	ErrVendorIDsNotAllowed     = errors.New("vendor_ids can only be set on events")
	ErrActivityIDsNotAllowed   = errors.New("activity_ids can only be set on temples")
	ErrInvalidDecision         = errors.New("Status must be approved or rejected")
	ErrRejectionReasonRequired = errors.New("Rejection reason is required")
	ErrInvalidDate             = errors.New("Invalid date, expected YYYY-MM-DD")
	ErrInvalidType             = errors.New("Invalid listing type")
	ErrFavoriteNotFound        = errors.New("Favorite not found")
)

// InvalidRefsError reports association ids that do not reference a listing of the required type.
type InvalidRefsError struct {
	Kind string // "vendor" | "activity"
	IDs  []int64
}

func (e *InvalidRefsError) Error() string {
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("Invalid %s IDs: %s", e.Kind, strings.Join(parts, ", "))
}

// StateError reports a review decision on a listing that is no longer pending.
type StateError struct {
	Status string
}

func (e *StateError) Error() string {
	return "Listing is already " + e.Status
}

// Service implements listing submission, aggregation, review and favorites.
// Notifier may be nil, in which case no notifications are written.
type Service struct {
	DB       *gorm.DB
	Notifier *notifsvc.Service
}

type EventInput struct {
	StartDateTime *time.Time `json:"start_date_time"`
	IsFree        bool       `json:"is_free"`
}

type TempleInput struct {
	Deity        string `json:"deity"`
	Denomination string `json:"denomination"`
}

type VendorInput struct {
	BusinessType string `json:"business_type"`
}

type ActivityInput struct {
	ActivityType string `json:"activity_type"`
	Schedule     string `json:"schedule"`
}

type MediaInput struct {
	URL     string  `json:"url"`
	Caption *string `json:"caption"`
}

// ListingInput is the payload for both submission and edit.
// Status and user_id in the body are ignored; the owner comes from the token.
type ListingInput struct {
	Type         string         `json:"type" validate:"required,oneof=event vendor temple activity"`
	Title        string         `json:"title" validate:"required,max=255"`
	Description  string         `json:"description"`
	Address      string         `json:"address" validate:"required"`
	City         string         `json:"city" validate:"required"`
	State        string         `json:"state" validate:"required"`
	ZipCode      string         `json:"zip_code"`
	ContactEmail string         `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string         `json:"contact_phone"`
	WebsiteURL   string         `json:"website_url" validate:"omitempty,url"`
	Event        *EventInput    `json:"event"`
	Temple       *TempleInput   `json:"temple"`
	Vendor       *VendorInput   `json:"vendor"`
	Activity     *ActivityInput `json:"activity"`
	Media        []MediaInput   `json:"media"`
	CategoryID   *int64         `json:"category_id"`
	VendorIDs    []int64        `json:"vendor_ids"`
	ActivityIDs  []int64        `json:"activity_ids"`
}

func (in *ListingInput) normalize() {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Title = strings.TrimSpace(in.Title)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.WebsiteURL = strings.TrimSpace(in.WebsiteURL)
	in.VendorIDs = uniqueIDs(in.VendorIDs)
	in.ActivityIDs = uniqueIDs(in.ActivityIDs)
}

func (in *ListingInput) validate() error {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return err
	}
	if len(in.VendorIDs) > 0 && in.Type != domain.ListingTypeEvent {
		return ErrVendorIDsNotAllowed
	}
	if len(in.ActivityIDs) > 0 && in.Type != domain.ListingTypeTemple {
		return ErrActivityIDsNotAllowed
	}
	for _, m := range in.Media {
		if strings.TrimSpace(m.URL) == "" {
			return ErrInvalidMedia
		}
	}
	return nil
}

// Submit creates a listing in pending state together with its details, associations,
// media, category link and the initial review record, in one transaction.
func (s *Service) Submit(ctx context.Context, p *domain.Principal, in ListingInput) (*domain.Listing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	listing := &domain.Listing{
		Type:         in.Type,
		Title:        in.Title,
		Description:  in.Description,
		Address:      in.Address,
		City:         in.City,
		State:        in.State,
		ZipCode:      in.ZipCode,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		WebsiteURL:   in.WebsiteURL,
		Status:       domain.StatusPending,
		UserID:       p.UserID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, 0, in); err != nil {
			return err
		}
		if err := tx.Create(listing).Error; err != nil {
			return fmt.Errorf("Failed to create listing: %w", err)
		}
		if err := writeChildren(tx, listing.ListingID, in); err != nil {
			return err
		}
		return tx.Create(&domain.ListingReview{
			ListingID: listing.ListingID,
			Status:    domain.StatusPending,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordSubmission("listing", "submit")
	log.Info().Int64("listing_id", listing.ListingID).Str("type", listing.Type).Msg("listings: submitted for review")
	return listing, nil
}

// Edit replaces a listing's content and sends it back to review.
// Only the owner or an admin may edit. Editing an approved or rejected listing clears
// the previous decision and appends a pending review record.
func (s *Service) Edit(ctx context.Context, p *domain.Principal, listingID int64, in ListingInput) (*domain.Listing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var (
		listing  domain.Listing
		previous string
		notice   *notifsvc.Notice
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		if !p.CanModify(listing.UserID) {
			return ErrForbidden
		}
		if err := checkReferences(tx, listingID, in); err != nil {
			return err
		}
		previous = listing.Status

		updates := map[string]interface{}{
			"type":           in.Type,
			"title":          in.Title,
			"description":    in.Description,
			"address":        in.Address,
			"city":           in.City,
			"state":          in.State,
			"zip_code":       in.ZipCode,
			"contact_email":  in.ContactEmail,
			"contact_phone":  in.ContactPhone,
			"website_url":    in.WebsiteURL,
			"status":         domain.StatusPending,
			"approved_by":    nil,
			"approved_at":    nil,
			"review_comment": nil,
		}
		if err := tx.Model(&listing).Updates(updates).Error; err != nil {
			return fmt.Errorf("Failed to update listing: %w", err)
		}
		if err := clearChildren(tx, listingID); err != nil {
			return err
		}
		if err := writeChildren(tx, listingID, in); err != nil {
			return err
		}
		if previous == domain.StatusPending {
			return nil
		}

		comment := "Resubmitted after edit"
		if err := tx.Create(&domain.ListingReview{
			ListingID: listingID,
			Status:    domain.StatusPending,
			Comment:   &comment,
		}).Error; err != nil {
			return fmt.Errorf("Failed to record review: %w", err)
		}
		if previous == domain.StatusApproved && s.Notifier != nil {
			n, err := ownerNotice(tx, listing.UserID)
			if err != nil {
				return err
			}
			n.Type = domain.NotificationListingPending
			n.Subject = "Your listing is pending review"
			n.Message = fmt.Sprintf("Your listing \"%s\" was updated and is pending review.", in.Title)
			n.Data = map[string]interface{}{"listing_id": listingID, "status": domain.StatusPending}
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
		metrics.RecordSubmission("listing", "resubmit")
	}
	if notice != nil {
		s.Notifier.Deliver(ctx, *notice)
	}
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// ownerNotice starts a notice addressed to the owner. A missing user row leaves Email empty.
func ownerNotice(tx *gorm.DB, userID uuid.UUID) (*notifsvc.Notice, error) {
	var owner domain.User
	if err := tx.Where("user_id = ?", userID).First(&owner).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &notifsvc.Notice{UserID: userID, Email: owner.Email}, nil
}

// checkReferences validates category, vendor and activity ids inside tx.
func checkReferences(tx *gorm.DB, self int64, in ListingInput) error {
	if in.CategoryID != nil {
		var n int64
		if err := tx.Model(&domain.Category{}).Where("category_id = ?", *in.CategoryID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrInvalidCategory
		}
	}
	if err := checkTyped(tx, self, in.VendorIDs, domain.ListingTypeVendor); err != nil {
		return err
	}
	return checkTyped(tx, self, in.ActivityIDs, domain.ListingTypeActivity)
}

func checkTyped(tx *gorm.DB, self int64, ids []int64, typ string) error {
	if len(ids) == 0 {
		return nil
	}
	var found []int64
	if err := tx.Model(&domain.Listing{}).
		Where("type = ? AND listing_id IN ?", typ, ids).
		Pluck("listing_id", &found).Error; err != nil {
		return err
	}
	ok := make(map[int64]bool, len(found))
	for _, id := range found {
		ok[id] = id != self
	}
	var invalid []int64
	for _, id := range ids {
		if !ok[id] {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return &InvalidRefsError{Kind: typ, IDs: invalid}
	}
	return nil
}

func writeChildren(tx *gorm.DB, listingID int64, in ListingInput) error {
	var detail interface{}
	switch in.Type {
	case domain.ListingTypeEvent:
		if in.Event != nil {
			detail = &domain.EventDetails{ListingID: listingID, StartDateTime: utc(in.Event.StartDateTime), IsFree: in.Event.IsFree}
		}
	case domain.ListingTypeTemple:
		if in.Temple != nil {
			detail = &domain.TempleDetails{ListingID: listingID, Deity: in.Temple.Deity, Denomination: in.Temple.Denomination}
		}
	case domain.ListingTypeVendor:
		if in.Vendor != nil {
			detail = &domain.VendorDetails{ListingID: listingID, BusinessType: in.Vendor.BusinessType}
		}
	case domain.ListingTypeActivity:
		if in.Activity != nil {
			detail = &domain.ActivityDetails{ListingID: listingID, ActivityType: in.Activity.ActivityType, Schedule: in.Activity.Schedule}
		}
	}
	if detail != nil {
		if err := tx.Create(detail).Error; err != nil {
			return fmt.Errorf("Failed to save %s details: %w", in.Type, err)
		}
	}

	if len(in.VendorIDs) > 0 {
		rows := make([]domain.EventVendor, len(in.VendorIDs))
		for i, id := range in.VendorIDs {
			rows[i] = domain.EventVendor{EventID: listingID, VendorID: id}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("Failed to link vendors: %w", err)
		}
	}
	if len(in.ActivityIDs) > 0 {
		rows := make([]domain.TempleActivity, len(in.ActivityIDs))
		for i, id := range in.ActivityIDs {
			rows[i] = domain.TempleActivity{TempleID: listingID, ActivityID: id}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("Failed to link activities: %w", err)
		}
	}
	if len(in.Media) > 0 {
		rows := make([]domain.Media, len(in.Media))
		for i, m := range in.Media {
			rows[i] = domain.Media{ListingID: listingID, MediaType: "image", URL: strings.TrimSpace(m.URL), Caption: m.Caption}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("Failed to save media: %w", err)
		}
	}
	if in.CategoryID != nil {
		if err := tx.Create(&domain.ListingCategory{ListingID: listingID, CategoryID: *in.CategoryID}).Error; err != nil {
			return fmt.Errorf("Failed to link category: %w", err)
		}
	}
	return nil
}

func clearChildren(tx *gorm.DB, listingID int64) error {
	for _, m := range []interface{}{&domain.EventDetails{}, &domain.TempleDetails{}, &domain.VendorDetails{}, &domain.ActivityDetails{}, &domain.Media{}, &domain.ListingCategory{}} {
		if err := tx.Where("listing_id = ?", listingID).Delete(m).Error; err != nil {
			return fmt.Errorf("Failed to clear listing data: %w", err)
		}
	}
	if err := tx.Where("event_id = ?", listingID).Delete(&domain.EventVendor{}).Error; err != nil {
		return err
	}
	return tx.Where("temple_id = ?", listingID).Delete(&domain.TempleActivity{}).Error
}

func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
