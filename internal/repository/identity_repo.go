package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
)

type IdentityRepository interface {
	// CreateWithProfile inserts the identity and its profile atomically.
	CreateWithProfile(ctx context.Context, identity *model.Identity, profile *model.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Identity, error)
	GetByEmail(ctx context.Context, email string) (*model.Identity, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	ConfirmEmail(ctx context.Context, id uuid.UUID, at time.Time) error
	// RecordSignIn stamps last_sign_in_at on both the identity and its profile.
	RecordSignIn(ctx context.Context, id uuid.UUID, at time.Time) error
}
