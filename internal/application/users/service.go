package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	emailsvc "listinghub-backend/internal/application/emails"
	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/infrastructure/identity"
	"listinghub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound     = errors.New("User not found")
	ErrMissingFields    = errors.New("Missing required fields")
	ErrInvalidEmail     = errors.New("Invalid email format")
	ErrTermsNotAccepted = errors.New("Terms must be accepted")
)

// Service maps identity-provider subjects to local user rows and manages profiles.
type Service struct {
	DB          *gorm.DB
	EmailSender emailsvc.Sender
}

// EnsureUser returns the user for the identity, creating the row on first sight.
func (s *Service) EnsureUser(ctx context.Context, id identity.Identity) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).Where("firebase_uid = ?", id.UID).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("Failed to look up user: %w", err)
	}

	first, last := splitName(id.Name)
	u = domain.User{
		ExternalUID: id.UID,
		Email:       strings.ToLower(strings.TrimSpace(id.Email)),
		FirstName:   first,
		LastName:    last,
	}
	// concurrent first requests for the same subject race on the unique index
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "firebase_uid"}},
		DoNothing: true,
	}).Create(&u).Error; err != nil {
		return nil, fmt.Errorf("Failed to create user: %w", err)
	}
	var stored domain.User
	if err := s.DB.WithContext(ctx).Where("firebase_uid = ?", id.UID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("Failed to load user: %w", err)
	}
	log.Info().Str("user_id", stored.UserID.String()).Msg("users: created user for new identity")
	return &stored, nil
}

// GetByID returns a user by primary key.
func (s *Service) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ProfileView is the response of the profile check.
type ProfileView struct {
	ProfileComplete bool         `json:"profileComplete"`
	User            *ProfileUser `json:"user"`
}

type ProfileUser struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	TermsAccepted bool   `json:"terms_accepted"`
	IsAdmin       bool   `json:"is_admin"`
}

// CheckProfile reports whether the caller's profile is complete.
func (s *Service) CheckProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return &ProfileView{ProfileComplete: false}, nil
		}
		return nil, err
	}
	phone := ""
	if u.PhoneNumber != nil {
		phone = *u.PhoneNumber
	}
	return &ProfileView{
		ProfileComplete: u.ProfileComplete(),
		User: &ProfileUser{
			FirstName:     u.FirstName,
			LastName:      u.LastName,
			Email:         u.Email,
			PhoneNumber:   phone,
			TermsAccepted: u.TermsAccepted,
			IsAdmin:       u.IsAdmin,
		},
	}, nil
}

type UpdateProfileInput struct {
	Email         string
	FirstName     string
	LastName      string
	PhoneNumber   *string // nil leaves it unchanged; empty clears it
	TermsAccepted *bool
}

// UpdateProfile sets the caller's profile. Completing a profile for the first time sends a welcome email.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if email == "" || first == "" || last == "" || in.TermsAccepted == nil {
		return nil, ErrMissingFields
	}
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	wasComplete := u.ProfileComplete()

	updates := map[string]interface{}{
		"email":          email,
		"first_name":     first,
		"last_name":      last,
		"terms_accepted": *in.TermsAccepted,
	}
	if in.PhoneNumber != nil {
		if p := strings.TrimSpace(*in.PhoneNumber); p != "" {
			updates["phone_number"] = p
		} else {
			updates["phone_number"] = nil
		}
	}
	if err := s.DB.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("Failed to update user: %w", err)
	}
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(u).Error; err != nil {
		return nil, err
	}

	if s.EmailSender != nil {
		var sendErr error
		if !wasComplete && u.ProfileComplete() {
			sendErr = s.EmailSender.SendWelcome(ctx, u.Email, u.FirstName)
		} else if wasComplete {
			sendErr = s.EmailSender.SendAccountUpdated(ctx, u.Email, u.FirstName)
		}
		if sendErr != nil {
			log.Error().Err(sendErr).Str("user_id", u.UserID.String()).Msg("users: profile email failed")
		}
	}
	return u, nil
}

type SyncInput struct {
	Email     string
	FirstName string
	LastName  string
}

// Sync copies identity-provider profile fields onto the caller's row. Empty fields are left alone.
func (s *Service) Sync(ctx context.Context, userID uuid.UUID, in SyncInput) (*domain.User, error) {
	updates := map[string]interface{}{}
	if e := strings.ToLower(strings.TrimSpace(in.Email)); e != "" {
		if !validation.IsValidEmail(e) {
			return nil, ErrInvalidEmail
		}
		updates["email"] = e
	}
	if f := strings.TrimSpace(in.FirstName); f != "" {
		updates["first_name"] = f
	}
	if l := strings.TrimSpace(in.LastName); l != "" {
		updates["last_name"] = l
	}
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.DB.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("Failed to sync user: %w", err)
	}
	return s.GetByID(ctx, userID)
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
