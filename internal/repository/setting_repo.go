package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
)

type SettingRepository interface {
	// List returns all setting rows ordered by key.
	List(ctx context.Context) ([]model.SiteSetting, error)
	// UpdateValue overwrites value, updated_by and updated_at for one key.
	// Returns gorm.ErrRecordNotFound when the row does not exist.
	UpdateValue(ctx context.Context, key model.SettingKey, value []byte, updatedBy uuid.UUID) error
}
