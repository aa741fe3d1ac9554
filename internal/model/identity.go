package model

import (
	"time"

	"github.com/google/uuid"
)

// Identity is an authenticated account owned by the identity provider.
// Only credential fields change after creation.
type Identity struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email            string     `gorm:"type:varchar(320);not null" json:"email"`
	PasswordHash     string     `gorm:"type:varchar(255);not null" json:"-"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time `json:"last_sign_in_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:ID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Identity) TableName() string { return "identities" }

func (i *Identity) EmailConfirmed() bool { return i.EmailConfirmedAt != nil }
