package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/repository"
	"github.com/johnlukeG/creator-cto-webkit/internal/security"
)

// Setting is one registry entry joined with its stored value.
type Setting struct {
	model.SettingMeta
	Value     model.SettingValue `json:"value"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
	UpdatedBy *uuid.UUID         `json:"updated_by,omitempty"`
}

type SettingsSection struct {
	Name     model.SettingSection `json:"name"`
	Settings []Setting            `json:"settings"`
}

type SettingsService interface {
	// ListSettings returns every known setting ordered by key. Keys with a
	// missing or undecodable row report the registry default.
	ListSettings(ctx context.Context) ([]Setting, error)
	// Sections groups ListSettings by section in display order.
	Sections(ctx context.Context) ([]SettingsSection, error)
	// Snapshot returns typed site flags, falling back to defaults when the
	// store is unavailable.
	Snapshot(ctx context.Context) model.SiteSnapshot
	// Validate resolves key and decodes raw into its kind. Text values are
	// sanitized. Returns ErrSettingNotFound or ErrInvalidSettingValue.
	Validate(key string, raw json.RawMessage) (model.SettingMeta, model.SettingValue, error)
}

type settingsService struct {
	repo      repository.SettingRepository
	cache     *ViewCache
	sanitizer security.TextSanitizer
	logger    *zap.Logger
}

func NewSettingsService(repo repository.SettingRepository, cache *ViewCache, sanitizer security.TextSanitizer, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, cache: cache, sanitizer: sanitizer, logger: logger}
}

func (s *settingsService) rows(ctx context.Context) ([]model.SiteSetting, error) {
	return loadView(ctx, s.cache, ViewSettings, "", s.repo.List)
}

func (s *settingsService) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	byKey := make(map[model.SettingKey]model.SiteSetting, len(rows))
	for _, row := range rows {
		byKey[row.Key] = row
	}

	known := model.KnownSettings()
	out := make([]Setting, 0, len(known))
	for _, meta := range known {
		setting := Setting{SettingMeta: meta, Value: meta.Default}
		if row, ok := byKey[meta.Key]; ok {
			updatedAt := row.UpdatedAt
			setting.UpdatedAt = &updatedAt
			setting.UpdatedBy = row.UpdatedBy
			v, err := model.DecodeSettingValue(meta.Kind, row.Value)
			if err != nil {
				s.logger.Warn("stored setting does not decode, using default",
					zap.String("key", string(meta.Key)), zap.Error(err))
			} else {
				setting.Value = v
			}
		}
		out = append(out, setting)
	}
	return out, nil
}

func (s *settingsService) Sections(ctx context.Context) ([]SettingsSection, error) {
	settings, err := s.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	sections := make([]SettingsSection, 0, len(model.Sections()))
	for _, name := range model.Sections() {
		section := SettingsSection{Name: name, Settings: []Setting{}}
		for _, setting := range settings {
			if setting.Section == name {
				section.Settings = append(section.Settings, setting)
			}
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func (s *settingsService) Snapshot(ctx context.Context) model.SiteSnapshot {
	snapshot := model.DefaultSiteSnapshot()
	settings, err := s.ListSettings(ctx)
	if err != nil {
		s.logger.Error("site settings unavailable, using defaults", zap.Error(err))
		return snapshot
	}
	for _, setting := range settings {
		snapshot.Apply(setting.Key, setting.Value)
	}
	return snapshot
}

func (s *settingsService) Validate(key string, raw json.RawMessage) (model.SettingMeta, model.SettingValue, error) {
	meta, ok := model.LookupSetting(key)
	if !ok {
		return model.SettingMeta{}, model.SettingValue{}, ErrSettingNotFound
	}
	v, err := model.DecodeSettingValue(meta.Kind, raw)
	if err != nil {
		if errors.Is(err, model.ErrSettingValueKind) {
			return meta, model.SettingValue{}, fmt.Errorf("%w: %v", ErrInvalidSettingValue, err)
		}
		return meta, model.SettingValue{}, err
	}
	if meta.Kind.IsText() {
		v.Text = s.sanitizer.SanitizeText(v.Text)
	}
	return meta, v, nil
}

var _ SettingsService = (*settingsService)(nil)
