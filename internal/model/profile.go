package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultBanReason is stored when an admin bans a user without giving a reason.
const DefaultBanReason = "No reason provided"

// Profile extends an Identity with role and moderation state.
// One row per identity, created in the same transaction as the identity.
type Profile struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"type:varchar(320);not null" json:"email"`
	FullName     *string    `gorm:"type:varchar(256)" json:"full_name"`
	AvatarURL    *string    `gorm:"type:text" json:"avatar_url"`
	IsAdmin      bool       `gorm:"not null;default:false;index" json:"is_admin"`
	IsBanned     bool       `gorm:"not null;default:false;index" json:"is_banned"`
	BannedAt     *time.Time `json:"banned_at"`
	BannedReason *string    `gorm:"type:text" json:"banned_reason"`
	LastSignInAt *time.Time `json:"last_sign_in_at"`
	CreatedAt    time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// BanFieldsConsistent reports whether banned_at and banned_reason are set
// exactly when the profile is banned.
func (p *Profile) BanFieldsConsistent() bool {
	hasFields := p.BannedAt != nil && p.BannedReason != nil
	noFields := p.BannedAt == nil && p.BannedReason == nil
	if p.IsBanned {
		return hasFields
	}
	return noFields
}
