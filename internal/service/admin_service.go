package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnlukeG/creator-cto-webkit/internal/metrics"
	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/repository"
)

const recentUsersLimit = 5

// UserFilter narrows the admin user list.
type UserFilter string

const (
	FilterAll    UserFilter = "all"
	FilterAdmin  UserFilter = "admin"
	FilterBanned UserFilter = "banned"
)

// ParseUserFilter maps unknown values to FilterAll.
func ParseUserFilter(s string) UserFilter {
	switch UserFilter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterAdmin:
		return FilterAdmin
	case FilterBanned:
		return FilterBanned
	default:
		return FilterAll
	}
}

// SettingUpdate is one item of a batch settings write.
type SettingUpdate struct {
	Key   string          `json:"key" binding:"required"`
	Value json.RawMessage `json:"value" binding:"required"`
}

// Dashboard is the admin landing page read model.
type Dashboard struct {
	Stats       model.AdminStats        `json:"stats"`
	Signups     []model.SignupDataPoint `json:"signups"`
	RecentUsers []model.Profile         `json:"recent_users"`
	ActiveRate  int64                   `json:"active_rate"`
}

// SessionRevoker ends every refresh session of a user.
type SessionRevoker interface {
	RevokeSessions(ctx context.Context, userID uuid.UUID) error
}

// AdminService is the only path through which roles, bans and site
// settings change. Mutations re-check the caller, never return Go errors,
// and invalidate the views that depend on what they wrote.
type AdminService interface {
	SetAdminStatus(ctx context.Context, callerID *uuid.UUID, targetID uuid.UUID, makeAdmin bool) model.Result
	SetBanStatus(ctx context.Context, callerID *uuid.UUID, targetID uuid.UUID, banned bool, reason *string) model.Result
	UpdateSetting(ctx context.Context, callerID *uuid.UUID, key string, value json.RawMessage) model.Result
	// UpdateMultipleSettings applies items in order without rollback.
	// Failures are reported as "key: reason" joined by ", ".
	UpdateMultipleSettings(ctx context.Context, callerID *uuid.UUID, updates []SettingUpdate) model.Result

	// ListUsers returns all profiles, newest first.
	ListUsers(ctx context.Context, callerID *uuid.UUID) ([]model.Profile, error)
	Dashboard(ctx context.Context, callerID *uuid.UUID) (*Dashboard, error)
	SettingsSections(ctx context.Context, callerID *uuid.UUID) ([]SettingsSection, error)
}

type adminService struct {
	guard       Guard
	profileRepo repository.ProfileRepository
	settingRepo repository.SettingRepository
	settings    SettingsService
	analytics   AnalyticsService
	sessions    SessionRevoker
	cache       *ViewCache
	recorder    metrics.Recorder
	logger      *zap.Logger
	now         func() time.Time
}

func NewAdminService(
	guard Guard,
	profileRepo repository.ProfileRepository,
	settingRepo repository.SettingRepository,
	settings SettingsService,
	analytics AnalyticsService,
	sessions SessionRevoker,
	cache *ViewCache,
	recorder metrics.Recorder,
	logger *zap.Logger,
) AdminService {
	if recorder == nil {
		recorder = metrics.Noop
	}
	return &adminService{
		guard:       guard,
		profileRepo: profileRepo,
		settingRepo: settingRepo,
		settings:    settings,
		analytics:   analytics,
		sessions:    sessions,
		cache:       cache,
		recorder:    recorder,
		logger:      logger,
		now:         time.Now,
	}
}

// authorize turns a guard failure into a failed Result.
func (s *adminService) authorize(ctx context.Context, op string, callerID *uuid.UUID) (*model.Profile, *model.Result) {
	admin, err := s.guard.RequireAdmin(ctx, callerID)
	if err == nil {
		return admin, nil
	}
	res := s.fail(op, err)
	return nil, &res
}

func (s *adminService) fail(op string, err error) model.Result {
	s.recorder.RecordMutation(op, false)
	if isRejection(err) {
		s.logger.Info("admin mutation rejected", zap.String("op", op), zap.Error(err))
	} else {
		s.logger.Error("admin mutation failed", zap.String("op", op), zap.Error(err))
	}
	return model.Fail(err.Error())
}

// isRejection reports caller or input faults, as opposed to store failures.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrUnauthenticated, ErrForbidden, ErrSelfModification,
		ErrUserNotFound, ErrSettingNotFound, ErrInvalidSettingValue,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *adminService) ok(op string) model.Result {
	s.recorder.RecordMutation(op, true)
	return model.OK()
}

func (s *adminService) SetAdminStatus(ctx context.Context, callerID *uuid.UUID, targetID uuid.UUID, makeAdmin bool) model.Result {
	const op = "set_admin_status"
	admin, denied := s.authorize(ctx, op, callerID)
	if denied != nil {
		return *denied
	}
	if targetID == admin.ID {
		return s.fail(op, ErrSelfModification)
	}

	if err := s.profileRepo.SetAdmin(ctx, targetID, makeAdmin); err != nil {
		return s.fail(op, notFoundAs(err, ErrUserNotFound))
	}
	s.cache.Invalidate(ctx, ViewUsers, ViewStats)
	s.logger.Info("admin status changed",
		zap.String("admin_id", admin.ID.String()),
		zap.String("target_id", targetID.String()),
		zap.Bool("is_admin", makeAdmin))
	return s.ok(op)
}

func (s *adminService) SetBanStatus(ctx context.Context, callerID *uuid.UUID, targetID uuid.UUID, banned bool, reason *string) model.Result {
	const op = "set_ban_status"
	admin, denied := s.authorize(ctx, op, callerID)
	if denied != nil {
		return *denied
	}
	if targetID == admin.ID {
		return s.fail(op, ErrSelfModification)
	}

	var err error
	if banned {
		err = s.profileRepo.Ban(ctx, targetID, banReason(reason), s.now())
	} else {
		err = s.profileRepo.Unban(ctx, targetID)
	}
	if err != nil {
		return s.fail(op, notFoundAs(err, ErrUserNotFound))
	}

	if banned && s.sessions != nil {
		if err := s.sessions.RevokeSessions(ctx, targetID); err != nil {
			s.logger.Warn("revoke sessions after ban failed",
				zap.String("target_id", targetID.String()), zap.Error(err))
		}
	}
	s.cache.Invalidate(ctx, ViewUsers, ViewStats)
	s.logger.Info("ban status changed",
		zap.String("admin_id", admin.ID.String()),
		zap.String("target_id", targetID.String()),
		zap.Bool("is_banned", banned))
	return s.ok(op)
}

func banReason(reason *string) string {
	if reason == nil || strings.TrimSpace(*reason) == "" {
		return model.DefaultBanReason
	}
	return strings.TrimSpace(*reason)
}

func (s *adminService) UpdateSetting(ctx context.Context, callerID *uuid.UUID, key string, value json.RawMessage) model.Result {
	const op = "update_setting"
	admin, denied := s.authorize(ctx, op, callerID)
	if denied != nil {
		return *denied
	}
	if err := s.writeSetting(ctx, admin.ID, key, value); err != nil {
		return s.fail(op, err)
	}
	s.cache.Invalidate(ctx, ViewSettings)
	return s.ok(op)
}

func (s *adminService) UpdateMultipleSettings(ctx context.Context, callerID *uuid.UUID, updates []SettingUpdate) model.Result {
	const op = "update_multiple_settings"
	admin, denied := s.authorize(ctx, op, callerID)
	if denied != nil {
		return *denied
	}

	var failures []string
	written := 0
	for _, u := range updates {
		if err := s.writeSetting(ctx, admin.ID, u.Key, u.Value); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %s", u.Key, err.Error()))
			continue
		}
		written++
	}
	if written > 0 {
		s.cache.Invalidate(ctx, ViewSettings)
	}
	if len(failures) > 0 {
		s.recorder.RecordMutation(op, false)
		s.logger.Warn("batch settings update partially failed",
			zap.Int("written", written), zap.Strings("failures", failures))
		return model.Fail(strings.Join(failures, ", "))
	}
	return s.ok(op)
}

func (s *adminService) writeSetting(ctx context.Context, adminID uuid.UUID, key string, raw json.RawMessage) error {
	meta, value, err := s.settings.Validate(key, raw)
	if err != nil {
		return err
	}
	encoded, err := value.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", meta.Key, err)
	}
	if err := s.settingRepo.UpdateValue(ctx, meta.Key, encoded, adminID); err != nil {
		return notFoundAs(err, ErrSettingNotFound)
	}
	s.logger.Info("setting updated",
		zap.String("admin_id", adminID.String()),
		zap.String("key", string(meta.Key)))
	return nil
}

func (s *adminService) ListUsers(ctx context.Context, callerID *uuid.UUID) ([]model.Profile, error) {
	if _, err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	users, err := loadView(ctx, s.cache, ViewUsers, "", func(ctx context.Context) ([]model.Profile, error) {
		return s.profileRepo.ListNewestFirst(ctx, 0)
	})
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return []model.Profile{}, nil
	}
	return users, nil
}

func (s *adminService) Dashboard(ctx context.Context, callerID *uuid.UUID) (*Dashboard, error) {
	users, err := s.ListUsers(ctx, callerID)
	if err != nil {
		return nil, err
	}
	stats := s.analytics.GetStats(ctx)

	recent := users
	if len(recent) > recentUsersLimit {
		recent = recent[:recentUsersLimit]
	}
	return &Dashboard{
		Stats:       stats,
		Signups:     s.analytics.GetSignupSeries(ctx, DefaultSignupDays),
		RecentUsers: recent,
		ActiveRate:  ActiveRate(stats),
	}, nil
}

func (s *adminService) SettingsSections(ctx context.Context, callerID *uuid.UUID) ([]SettingsSection, error) {
	if _, err := s.guard.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.settings.Sections(ctx)
}

// ActiveRate is this week's signups as a rounded percentage of all users.
func ActiveRate(stats model.AdminStats) int64 {
	if stats.TotalUsers == 0 {
		return 0
	}
	return int64(math.Round(float64(stats.UsersThisWeek) / float64(stats.TotalUsers) * 100))
}

// FilterUsers applies the role/ban filter and a case-insensitive email
// substring match. Order is preserved.
func FilterUsers(users []model.Profile, query string, filter UserFilter) []model.Profile {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Profile, 0, len(users))
	for _, u := range users {
		if query != "" && !strings.Contains(strings.ToLower(u.Email), query) {
			continue
		}
		switch filter {
		case FilterAdmin:
			if !u.IsAdmin {
				continue
			}
		case FilterBanned:
			if !u.IsBanned {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

func notFoundAs(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

var _ AdminService = (*adminService)(nil)
