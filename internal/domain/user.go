package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the local row mapped from an identity-provider subject.
type User struct {
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	ExternalUID   string    `gorm:"column:firebase_uid;not null;uniqueIndex" json:"firebase_uid"`
	Email         string    `gorm:"column:email" json:"email"`
	FirstName     string    `gorm:"column:first_name" json:"first_name"`
	LastName      string    `gorm:"column:last_name" json:"last_name"`
	PhoneNumber   *string   `gorm:"column:phone_number" json:"phone_number"`
	TermsAccepted bool      `gorm:"column:terms_accepted;not null;default:false" json:"terms_accepted"`
	IsAdmin       bool      `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate sets user_id if not already set (DBs without default uuid).
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// ProfileComplete reports whether the fields required before submitting content are present.
// Phone number is optional.
func (u *User) ProfileComplete() bool {
	return strings.TrimSpace(u.FirstName) != "" &&
		strings.TrimSpace(u.LastName) != "" &&
		strings.TrimSpace(u.Email) != "" &&
		u.TermsAccepted
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID      uuid.UUID
	ExternalUID string
	Email       string
	IsAdmin     bool
}

// CanModify reports whether the principal owns the resource or is an admin.
func (p *Principal) CanModify(ownerID uuid.UUID) bool {
	return p != nil && (p.IsAdmin || p.UserID == ownerID)
}
