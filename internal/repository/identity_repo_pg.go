package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
)

type pgIdentityRepository struct {
	db *gorm.DB
}

func NewPGIdentityRepository(db *gorm.DB) IdentityRepository {
	return &pgIdentityRepository{db: db}
}

func (r *pgIdentityRepository) CreateWithProfile(ctx context.Context, identity *model.Identity, profile *model.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(identity).Error; err != nil {
			return err
		}
		profile.ID = identity.ID
		if profile.Email == "" {
			profile.Email = identity.Email
		}
		return tx.Create(profile).Error
	})
}

func (r *pgIdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	var identity model.Identity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *pgIdentityRepository) GetByEmail(ctx context.Context, email string) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&identity).Error
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *pgIdentityRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return updateOne(r.db.WithContext(ctx).Model(&model.Identity{}).Where("id = ?", id),
		map[string]interface{}{"password_hash": hash, "updated_at": time.Now()})
}

func (r *pgIdentityRepository) ConfirmEmail(ctx context.Context, id uuid.UUID, at time.Time) error {
	return updateOne(r.db.WithContext(ctx).Model(&model.Identity{}).Where("id = ?", id),
		map[string]interface{}{"email_confirmed_at": at, "updated_at": at})
}

func (r *pgIdentityRepository) RecordSignIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateOne(tx.Model(&model.Identity{}).Where("id = ?", id),
			map[string]interface{}{"last_sign_in_at": at}); err != nil {
			return err
		}
		return tx.Model(&model.Profile{}).Where("id = ?", id).
			UpdateColumn("last_sign_in_at", at).Error
	})
}

// updateOne applies a column map and reports gorm.ErrRecordNotFound when
// no row matched.
func updateOne(q *gorm.DB, columns map[string]interface{}) error {
	res := q.Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
