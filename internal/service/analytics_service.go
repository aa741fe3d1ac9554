package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/repository"
)

const (
	DefaultSignupDays = 30
	MaxSignupDays     = 365
)

// AnalyticsService computes dashboard aggregates. Failures degrade to zero
// stats or an empty series rather than erroring.
type AnalyticsService interface {
	GetStats(ctx context.Context) model.AdminStats
	// GetSignupSeries returns daysBack points ending today, oldest first.
	// daysBack <= 0 means DefaultSignupDays; values above MaxSignupDays are
	// capped.
	GetSignupSeries(ctx context.Context, daysBack int) []model.SignupDataPoint
}

type analyticsService struct {
	repo   repository.AnalyticsRepository
	cache  *ViewCache
	logger *zap.Logger
	now    func() time.Time
}

func NewAnalyticsService(repo repository.AnalyticsRepository, cache *ViewCache, logger *zap.Logger) AnalyticsService {
	return &analyticsService{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CalendarWindow returns the day, week (Monday) and month starts that
// contain now, in now's location.
func CalendarWindow(now time.Time) repository.StatsWindow {
	day := StartOfDay(now)
	sinceMonday := (int(day.Weekday()) + 6) % 7
	return repository.StatsWindow{
		DayStart:   day,
		WeekStart:  day.AddDate(0, 0, -sinceMonday),
		MonthStart: time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()),
	}
}

func (s *analyticsService) GetStats(ctx context.Context) model.AdminStats {
	window := CalendarWindow(s.now())
	stats, err := loadView(ctx, s.cache, ViewStats, window.DayStart.Format("2006-01-02"),
		func(ctx context.Context) (model.AdminStats, error) {
			st, err := s.repo.Stats(ctx, window)
			if err != nil {
				return model.AdminStats{}, err
			}
			return *st, nil
		})
	if err != nil {
		s.logger.Error("admin stats query failed", zap.Error(err))
		return model.AdminStats{}
	}
	return stats
}

func (s *analyticsService) GetSignupSeries(ctx context.Context, daysBack int) []model.SignupDataPoint {
	if daysBack <= 0 {
		daysBack = DefaultSignupDays
	}
	if daysBack > MaxSignupDays {
		daysBack = MaxSignupDays
	}
	today := StartOfDay(s.now())
	from := today.AddDate(0, 0, -(daysBack - 1))

	variant := strconv.Itoa(daysBack) + ":" + today.Format("2006-01-02")
	series, err := loadView(ctx, s.cache, ViewSignups, variant,
		func(ctx context.Context) ([]model.SignupDataPoint, error) {
			return s.repo.SignupSeries(ctx, from, daysBack)
		})
	if err != nil {
		s.logger.Error("signup series query failed", zap.Int("days_back", daysBack), zap.Error(err))
		return []model.SignupDataPoint{}
	}
	return series
}

var _ AnalyticsService = (*analyticsService)(nil)
