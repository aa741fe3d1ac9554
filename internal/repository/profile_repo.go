package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	// ListNewestFirst returns profiles ordered by created_at descending.
	// limit <= 0 returns all rows.
	ListNewestFirst(ctx context.Context, limit int) ([]model.Profile, error)
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
	Ban(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
	Unban(ctx context.Context, id uuid.UUID) error
	UpdateDetails(ctx context.Context, id uuid.UUID, fullName, avatarURL *string) error
}
