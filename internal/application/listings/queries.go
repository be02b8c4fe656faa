package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/pkg/usstates"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 6
	MaxPageSize     = 50
)

// Get returns one listing of any status, with its owner. p may be nil for anonymous callers;
// the owner's email is shown only to the owner and admins, and a signed-in caller also gets
// its notification opt-in state.
func (s *Service) Get(ctx context.Context, p *domain.Principal, listingID int64) (*ListingView, error) {
	var l domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("Failed to fetch listing: %w", err)
	}
	views, err := aggregate(ctx, s.DB, []domain.Listing{l}, true)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch listing details: %w", err)
	}
	view := &views[0]
	if view.Owner != nil && !p.CanModify(l.UserID) {
		view.Owner.Email = ""
	}
	if p != nil {
		on, err := s.OptedIn(ctx, p.UserID, listingID)
		if err != nil {
			return nil, fmt.Errorf("Failed to fetch notification preference: %w", err)
		}
		view.OptedIn = &on
	}
	return view, nil
}

// Recent returns the newest approved listings.
func (s *Service) Recent(ctx context.Context) ([]ListingView, error) {
	var rows []domain.Listing
	if err := s.DB.WithContext(ctx).
		Where("status = ?", domain.StatusApproved).
		Order("created_at DESC").Order("listing_id DESC").
		Limit(DefaultPageSize).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %w", err)
	}
	return aggregate(ctx, s.DB, rows, false)
}

// Mine returns every listing the user owns, any status.
func (s *Service) Mine(ctx context.Context, userID uuid.UUID) ([]ListingView, error) {
	var rows []domain.Listing
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("listing_id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %w", err)
	}
	return aggregate(ctx, s.DB, rows, false)
}

type SearchInput struct {
	Type     string
	Category string
	Location string // "city, state"; either part may be empty
	Date     string // YYYY-MM-DD, matches events starting that day (UTC)
	Status   string
	Page     int
	Limit    int
}

type SearchResult struct {
	Listings []ListingView
	Page     int
	Limit    int
	Total    int64
}

// Search filters listings and returns one page. Only admins may search outside approved.
func (s *Service) Search(ctx context.Context, p *domain.Principal, in SearchInput) (*SearchResult, error) {
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = domain.StatusApproved
	}
	if status != domain.StatusApproved && (p == nil || !p.IsAdmin) {
		return nil, ErrAdminRequired
	}
	page, limit := in.Page, in.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	q := s.DB.WithContext(ctx).Model(&domain.Listing{}).Where("status = ?", status)

	if t := strings.ToLower(strings.TrimSpace(in.Type)); t != "" {
		if !domain.ValidListingType(t) {
			return nil, ErrInvalidType
		}
		q = q.Where("type = ?", t)
	}
	if loc := strings.TrimSpace(in.Location); loc != "" {
		parts := strings.SplitN(loc, ",", 2)
		if city := strings.ToLower(strings.TrimSpace(parts[0])); city != "" {
			q = q.Where("LOWER(city) LIKE ?", "%"+city+"%")
		}
		if len(parts) == 2 {
			if st := strings.TrimSpace(parts[1]); st != "" {
				q = q.Where("UPPER(state) IN ?", []string{strings.ToUpper(st), usstates.Code(st)})
			}
		}
	}
	if d := strings.TrimSpace(in.Date); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, ErrInvalidDate
		}
		q = q.Where("listing_id IN (?)", s.DB.Model(&domain.EventDetails{}).
			Select("listing_id").
			Where("start_date_time >= ? AND start_date_time < ?", day.UTC(), day.UTC().AddDate(0, 0, 1)))
	}
	if c := strings.ToLower(strings.TrimSpace(in.Category)); c != "" {
		q = q.Where("listing_id IN (?)", s.DB.Table("listing_categories AS lc").
			Select("lc.listing_id").
			Joins("JOIN categories AS c ON c.category_id = lc.category_id").
			Where("LOWER(c.name) = ?", c))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("Failed to search listings: %w", err)
	}
	var rows []domain.Listing
	if err := q.Order("created_at DESC").Order("listing_id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("Failed to search listings: %w", err)
	}
	views, err := aggregate(ctx, s.DB, rows, false)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch listing details: %w", err)
	}
	return &SearchResult{Listings: views, Page: page, Limit: limit, Total: total}, nil
}

// PendingListing is a listing awaiting review with its submitter and latest review note.
type PendingListing struct {
	ListingView
	LatestComment *string   `json:"latest_review_comment"`
	Submitter     Submitter `json:"submitter"`
}

type Submitter struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	ExternalUID string    `json:"firebase_uid"`
}

// Pending returns all pending listings, oldest first, for the admin queue.
func (s *Service) Pending(ctx context.Context) ([]PendingListing, error) {
	var rows []domain.Listing
	if err := s.DB.WithContext(ctx).
		Where("status = ?", domain.StatusPending).
		Order("created_at ASC").Order("listing_id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch pending listings: %w", err)
	}
	views, err := aggregate(ctx, s.DB, rows, true)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch listing details: %w", err)
	}
	out := make([]PendingListing, len(views))
	if len(views) == 0 {
		return out, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ListingID
	}
	var reviews []domain.ListingReview
	if err := s.DB.WithContext(ctx).
		Where("listing_id IN ?", ids).
		Order("created_at DESC").Order("review_id DESC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch reviews: %w", err)
	}
	latest := make(map[int64]*string, len(ids))
	for _, r := range reviews {
		if _, seen := latest[r.ListingID]; !seen {
			latest[r.ListingID] = r.Comment
		}
	}

	for i, v := range views {
		out[i] = PendingListing{ListingView: v, LatestComment: latest[v.ListingID]}
		if v.Owner != nil {
			out[i].Submitter = Submitter{UserID: v.Owner.UserID, Email: v.Owner.Email, ExternalUID: v.Owner.ExternalUID}
		} else {
			out[i].Submitter = Submitter{UserID: v.UserID}
		}
	}
	return out, nil
}
