package listings

import (
	"context"
	"fmt"

	"listinghub-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

func (s *Service) exists(ctx context.Context, listingID int64) error {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Listing{}).Where("listing_id = ?", listingID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrListingNotFound
	}
	return nil
}

// AddFavorite favorites a listing. created is false when it was already a favorite.
func (s *Service) AddFavorite(ctx context.Context, userID uuid.UUID, listingID int64) (bool, error) {
	if err := s.exists(ctx, listingID); err != nil {
		return false, err
	}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "listing_id"}},
		DoNothing: true,
	}).Create(&domain.Favorite{UserID: userID, ListingID: listingID})
	if res.Error != nil {
		return false, fmt.Errorf("Failed to add favorite: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Service) RemoveFavorite(ctx context.Context, userID uuid.UUID, listingID int64) error {
	res := s.DB.WithContext(ctx).Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&domain.Favorite{})
	if res.Error != nil {
		return fmt.Errorf("Failed to remove favorite: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// Favorites returns the user's favorite listings, most recently favorited first.
func (s *Service) Favorites(ctx context.Context, userID uuid.UUID) ([]ListingView, error) {
	var rows []domain.Listing
	if err := s.DB.WithContext(ctx).
		Joins("JOIN favorites AS f ON f.listing_id = listings.listing_id").
		Where("f.user_id = ?", userID).
		Order("f.created_at DESC").Order("f.favorite_id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch favorites: %w", err)
	}
	return aggregate(ctx, s.DB, rows, false)
}

// OptIn subscribes the user to updates about a listing. Repeating it is a no-op.
func (s *Service) OptIn(ctx context.Context, userID uuid.UUID, listingID int64) error {
	if err := s.exists(ctx, listingID); err != nil {
		return err
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "listing_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"opted_in": true}),
	}).Create(&domain.NotificationPreference{UserID: userID, ListingID: listingID, OptedIn: true}).Error
	if err != nil {
		return fmt.Errorf("Failed to opt in: %w", err)
	}
	return nil
}

// OptOut removes the user's preference row. Opting out twice is not an error.
func (s *Service) OptOut(ctx context.Context, userID uuid.UUID, listingID int64) error {
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&domain.NotificationPreference{}).Error; err != nil {
		return fmt.Errorf("Failed to opt out: %w", err)
	}
	return nil
}

// OptedIn reports whether the user is subscribed to the listing.
func (s *Service) OptedIn(ctx context.Context, userID uuid.UUID, listingID int64) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&domain.NotificationPreference{}).
		Where("user_id = ? AND listing_id = ? AND opted_in = ?", userID, listingID, true).
		Count(&n).Error
	return n > 0, err
}
