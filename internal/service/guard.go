package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/repository"
)

type CallerKind int

const (
	CallerAnonymous CallerKind = iota
	CallerUser
	CallerAdmin
)

func (k CallerKind) String() string {
	switch k {
	case CallerUser:
		return "user"
	case CallerAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Caller is the resolved identity behind a request. Profile is nil only for
// anonymous callers.
type Caller struct {
	Kind    CallerKind
	Profile *model.Profile
}

// Guard resolves callers from an explicit identity id. Every call reads the
// profile store; decisions are never cached.
type Guard interface {
	// ResolveCaller returns anonymous for a nil id or an id with no identity,
	// admin for an unbanned profile with is_admin set, and user otherwise.
	ResolveCaller(ctx context.Context, identityID *uuid.UUID) (*Caller, error)
	// RequireSignedIn returns ErrUnauthenticated or ErrBanned, or the
	// caller's profile.
	RequireSignedIn(ctx context.Context, identityID *uuid.UUID) (*model.Profile, error)
	// RequireAdmin returns ErrUnauthenticated or ErrForbidden, or the
	// admin's profile.
	RequireAdmin(ctx context.Context, identityID *uuid.UUID) (*model.Profile, error)
}

type guard struct {
	profileRepo  repository.ProfileRepository
	identityRepo repository.IdentityRepository
}

func NewGuard(profileRepo repository.ProfileRepository, identityRepo repository.IdentityRepository) Guard {
	return &guard{profileRepo: profileRepo, identityRepo: identityRepo}
}

func (g *guard) ResolveCaller(ctx context.Context, identityID *uuid.UUID) (*Caller, error) {
	if identityID == nil || *identityID == uuid.Nil {
		return &Caller{Kind: CallerAnonymous}, nil
	}

	profile, err := g.profileRepo.GetByID(ctx, *identityID)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile, err = g.syntheticProfile(ctx, *identityID)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return &Caller{Kind: CallerAnonymous}, nil
		}
	default:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if profile.IsAdmin && !profile.IsBanned {
		return &Caller{Kind: CallerAdmin, Profile: profile}, nil
	}
	return &Caller{Kind: CallerUser, Profile: profile}, nil
}

// syntheticProfile stands in for a profile row that is missing for an
// existing identity. Returns (nil, nil) when the identity is gone too.
func (g *guard) syntheticProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	identity, err := g.identityRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return &model.Profile{
		ID:           identity.ID,
		Email:        identity.Email,
		LastSignInAt: identity.LastSignInAt,
		CreatedAt:    identity.CreatedAt,
		UpdatedAt:    identity.UpdatedAt,
	}, nil
}

func (g *guard) RequireSignedIn(ctx context.Context, identityID *uuid.UUID) (*model.Profile, error) {
	caller, err := g.ResolveCaller(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if caller.Kind == CallerAnonymous {
		return nil, ErrUnauthenticated
	}
	if caller.Profile.IsBanned {
		return nil, ErrBanned
	}
	return caller.Profile, nil
}

func (g *guard) RequireAdmin(ctx context.Context, identityID *uuid.UUID) (*model.Profile, error) {
	caller, err := g.ResolveCaller(ctx, identityID)
	if err != nil {
		return nil, err
	}
	switch caller.Kind {
	case CallerAnonymous:
		return nil, ErrUnauthenticated
	case CallerAdmin:
		return caller.Profile, nil
	default:
		return nil, ErrForbidden
	}
}

var _ Guard = (*guard)(nil)
