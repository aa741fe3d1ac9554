package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
)

type pgSettingRepository struct {
	db *gorm.DB
}

func NewPGSettingRepository(db *gorm.DB) SettingRepository {
	return &pgSettingRepository{db: db}
}

func (r *pgSettingRepository) List(ctx context.Context) ([]model.SiteSetting, error) {
	var settings []model.SiteSetting
	err := r.db.WithContext(ctx).Order("key").Find(&settings).Error
	return settings, err
}

func (r *pgSettingRepository) UpdateValue(ctx context.Context, key model.SettingKey, value []byte, updatedBy uuid.UUID) error {
	return updateOne(r.db.WithContext(ctx).Model(&model.SiteSetting{}).Where("key = ?", key),
		map[string]interface{}{
			"value":      datatypes.JSON(value),
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		})
}
