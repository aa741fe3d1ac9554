package model

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AutoMigrate runs GORM auto-migration for all models, creates custom
// indexes and constraints, and seeds the well-known site settings.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Identity{},
		&Profile{},
		&SiteSetting{},
	); err != nil {
		return err
	}

	// Case-insensitive unique email per identity.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_identities_email_lower " +
			"ON identities ((lower(email)))",
	).Error; err != nil {
		return err
	}

	// banned_at and banned_reason are set exactly when is_banned is true.
	if err := db.Exec(`
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_profiles_ban_fields') THEN
		ALTER TABLE profiles ADD CONSTRAINT chk_profiles_ban_fields CHECK (
			(is_banned AND banned_at IS NOT NULL AND banned_reason IS NOT NULL)
			OR (NOT is_banned AND banned_at IS NULL AND banned_reason IS NULL)
		);
	END IF;
END $$;`).Error; err != nil {
		return err
	}

	return SeedSettings(db)
}

// SeedSettings inserts any missing well-known setting rows with their
// defaults. Existing rows are left untouched.
func SeedSettings(db *gorm.DB) error {
	for _, meta := range KnownSettings() {
		value, err := meta.Default.Encode()
		if err != nil {
			return fmt.Errorf("encode default for %s: %w", meta.Key, err)
		}
		description := meta.Description
		row := SiteSetting{
			Key:         meta.Key,
			Value:       value,
			Description: &description,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("seed setting %s: %w", meta.Key, err)
		}
	}
	return nil
}
