package repository

import (
	"context"
	"time"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
)

// StatsWindow holds the local calendar boundaries used for "new users" counts.
type StatsWindow struct {
	DayStart   time.Time
	WeekStart  time.Time
	MonthStart time.Time
}

type AnalyticsRepository interface {
	// Stats counts profiles in total, by role/ban flag, and created since
	// each window boundary.
	Stats(ctx context.Context, window StatsWindow) (*model.AdminStats, error)
	// SignupSeries returns one point per calendar day starting at from
	// (a local midnight), oldest first, with zero-count days included.
	SignupSeries(ctx context.Context, from time.Time, days int) ([]model.SignupDataPoint, error)
}

const dateLayout = "2006-01-02"

// BucketByDay counts timestamps per calendar day in loc.
func BucketByDay(times []time.Time, loc *time.Location) map[string]int64 {
	counts := make(map[string]int64, len(times))
	for _, t := range times {
		counts[t.In(loc).Format(dateLayout)]++
	}
	return counts
}

// DensifySignups expands sparse per-day counts into exactly days points
// starting at from, filling missing days with zero.
func DensifySignups(counts map[string]int64, from time.Time, days int) []model.SignupDataPoint {
	if days <= 0 {
		return []model.SignupDataPoint{}
	}
	series := make([]model.SignupDataPoint, 0, days)
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i).Format(dateLayout)
		series = append(series, model.SignupDataPoint{Date: date, Count: counts[date]})
	}
	return series
}
