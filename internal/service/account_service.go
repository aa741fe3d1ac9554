package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/repository"
	"github.com/johnlukeG/creator-cto-webkit/internal/security"
)

// Account is the signed-in user's own view of their profile.
type Account struct {
	Profile     *model.Profile `json:"profile"`
	IsAdmin     bool           `json:"is_admin"`
	MemberSince string         `json:"member_since"` // YYYY-MM-DD
}

// ProfileUpdate replaces the editable profile fields. An empty string
// clears a field.
type ProfileUpdate struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

type AccountService interface {
	GetAccount(ctx context.Context, callerID *uuid.UUID) (*Account, error)
	UpdateProfile(ctx context.Context, callerID *uuid.UUID, update ProfileUpdate) (*Account, error)
}

type accountService struct {
	guard       Guard
	profileRepo repository.ProfileRepository
	sanitizer   security.TextSanitizer
	cache       *ViewCache
}

func NewAccountService(guard Guard, profileRepo repository.ProfileRepository, sanitizer security.TextSanitizer, cache *ViewCache) AccountService {
	return &accountService{guard: guard, profileRepo: profileRepo, sanitizer: sanitizer, cache: cache}
}

func (s *accountService) GetAccount(ctx context.Context, callerID *uuid.UUID) (*Account, error) {
	profile, err := s.guard.RequireSignedIn(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return AccountOf(profile), nil
}

// AccountOf builds the account view of profile.
func AccountOf(profile *model.Profile) *Account {
	return &Account{
		Profile:     profile,
		IsAdmin:     profile.IsAdmin,
		MemberSince: profile.CreatedAt.Format("2006-01-02"),
	}
}

func (s *accountService) UpdateProfile(ctx context.Context, callerID *uuid.UUID, update ProfileUpdate) (*Account, error) {
	profile, err := s.guard.RequireSignedIn(ctx, callerID)
	if err != nil {
		return nil, err
	}

	fullName := optional(s.sanitizer.SanitizeText(update.FullName))
	avatarURL, err := normalizeAvatarURL(update.AvatarURL)
	if err != nil {
		return nil, err
	}

	if err := s.profileRepo.UpdateDetails(ctx, profile.ID, fullName, avatarURL); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.cache.Invalidate(ctx, ViewUsers)

	updated, err := s.profileRepo.GetByID(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}
	return AccountOf(updated), nil
}

func normalizeAvatarURL(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidAvatarURL
	}
	s := u.String()
	return &s, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ AccountService = (*accountService)(nil)
