package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
)

type pgProfileRepository struct {
	db *gorm.DB
}

func NewPGProfileRepository(db *gorm.DB) ProfileRepository {
	return &pgProfileRepository{db: db}
}

func (r *pgProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *pgProfileRepository) ListNewestFirst(ctx context.Context, limit int) ([]model.Profile, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var profiles []model.Profile
	if err := q.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *pgProfileRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	return r.update(ctx, id, map[string]interface{}{
		"is_admin": isAdmin,
	})
}

// Ban sets all three ban columns in a single UPDATE.
func (r *pgProfileRepository) Ban(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"is_banned":     true,
		"banned_at":     at,
		"banned_reason": reason,
	})
}

// Unban clears all three ban columns in a single UPDATE.
func (r *pgProfileRepository) Unban(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{
		"is_banned":     false,
		"banned_at":     nil,
		"banned_reason": nil,
	})
}

func (r *pgProfileRepository) UpdateDetails(ctx context.Context, id uuid.UUID, fullName, avatarURL *string) error {
	return r.update(ctx, id, map[string]interface{}{
		"full_name":  fullName,
		"avatar_url": avatarURL,
	})
}

func (r *pgProfileRepository) update(ctx context.Context, id uuid.UUID, columns map[string]interface{}) error {
	columns["updated_at"] = time.Now()
	return updateOne(r.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id), columns)
}
