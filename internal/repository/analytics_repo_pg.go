package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
)

type pgAnalyticsRepository struct {
	db *gorm.DB
}

func NewPGAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &pgAnalyticsRepository{db: db}
}

const adminStatsSQL = `
SELECT
	COUNT(*)                                   AS total_users,
	COUNT(*) FILTER (WHERE is_admin)           AS admin_users,
	COUNT(*) FILTER (WHERE is_banned)          AS banned_users,
	COUNT(*) FILTER (WHERE created_at >= @day)   AS users_today,
	COUNT(*) FILTER (WHERE created_at >= @week)  AS users_this_week,
	COUNT(*) FILTER (WHERE created_at >= @month) AS users_this_month
FROM profiles`

func (r *pgAnalyticsRepository) Stats(ctx context.Context, window StatsWindow) (*model.AdminStats, error) {
	var stats model.AdminStats
	err := r.db.WithContext(ctx).Raw(adminStatsSQL, map[string]interface{}{
		"day":   window.DayStart,
		"week":  window.WeekStart,
		"month": window.MonthStart,
	}).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// SignupSeries buckets in Go so day boundaries follow the server's local
// calendar rather than the database session time zone.
func (r *pgAnalyticsRepository) SignupSeries(ctx context.Context, from time.Time, days int) ([]model.SignupDataPoint, error) {
	if days <= 0 {
		return []model.SignupDataPoint{}, nil
	}
	to := from.AddDate(0, 0, days)

	var createdAt []time.Time
	err := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Pluck("created_at", &createdAt).Error
	if err != nil {
		return nil, err
	}
	return DensifySignups(BucketByDay(createdAt, from.Location()), from, days), nil
}
