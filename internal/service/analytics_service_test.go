package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
)

func TestCalendarWindow(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)

	wed := CalendarWindow(time.Date(2026, 10, 14, 15, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, loc), wed.DayStart)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, loc), wed.WeekStart)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, loc), wed.MonthStart)

	sun := CalendarWindow(time.Date(2026, 10, 18, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, loc), sun.WeekStart)

	mon := CalendarWindow(time.Date(2026, 10, 12, 0, 0, 0, 0, loc))
	assert.Equal(t, mon.DayStart, mon.WeekStart)
}

func fixedAnalytics(env *testEnv, now time.Time) AnalyticsService {
	svc := env.stats.(*analyticsService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestGetSignupSeries_DenseAndOrdered(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.Local)
	stats := fixedAnalytics(env, now)

	env.db.addUser("a@example.com", false, now.Add(-time.Hour))
	env.db.addUser("b@example.com", false, now.Add(-2*time.Hour))
	env.db.addUser("c@example.com", false, now.AddDate(0, 0, -3))
	env.db.addUser("old@example.com", false, now.AddDate(0, 0, -30))

	series := stats.GetSignupSeries(context.Background(), 7)
	require.Len(t, series, 7)
	assert.Equal(t, "2026-10-11", series[0].Date)
	assert.Equal(t, "2026-10-17", series[6].Date)
	assert.Equal(t, int64(2), series[6].Count)
	assert.Equal(t, int64(1), series[3].Count)

	var total int64
	for i, p := range series {
		total += p.Count
		if i > 0 {
			assert.Less(t, series[i-1].Date, p.Date)
		}
	}
	assert.Equal(t, int64(3), total)
}

func TestGetSignupSeries_ClampsDays(t *testing.T) {
	env := newTestEnv(t)
	stats := fixedAnalytics(env, time.Date(2026, 10, 17, 12, 0, 0, 0, time.Local))
	ctx := context.Background()

	assert.Len(t, stats.GetSignupSeries(ctx, 0), DefaultSignupDays)
	assert.Len(t, stats.GetSignupSeries(ctx, -4), DefaultSignupDays)
	assert.Len(t, stats.GetSignupSeries(ctx, 1000), MaxSignupDays)
	assert.Len(t, stats.GetSignupSeries(ctx, 1), 1)
}

func TestAnalytics_FailuresDegrade(t *testing.T) {
	env := newTestEnv(t)
	env.analytics.err = errStore
	ctx := context.Background()

	assert.Equal(t, model.AdminStats{}, env.stats.GetStats(ctx))
	series := env.stats.GetSignupSeries(ctx, 7)
	assert.NotNil(t, series)
	assert.Empty(t, series)
}

func TestGetStats_CountsWindows(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.Local)
	stats := fixedAnalytics(env, now)

	env.db.addUser("today@example.com", true, now.Add(-time.Hour))
	env.db.addUser("monday@example.com", false, time.Date(2026, 10, 12, 9, 0, 0, 0, time.Local))
	env.db.addUser("month@example.com", false, time.Date(2026, 10, 2, 9, 0, 0, 0, time.Local))
	banned := env.db.addUser("sept@example.com", false, time.Date(2026, 9, 20, 9, 0, 0, 0, time.Local))
	env.db.profiles[banned].IsBanned = true

	got := stats.GetStats(context.Background())
	assert.Equal(t, model.AdminStats{
		TotalUsers:     4,
		AdminUsers:     1,
		BannedUsers:    1,
		UsersToday:     1,
		UsersThisWeek:  2,
		UsersThisMonth: 3,
	}, got)
}

func TestGetStats_ServedFromCacheUntilInvalidated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.db.addUser("a@example.com", false, time.Now())

	first := env.stats.GetStats(ctx)
	env.db.addUser("b@example.com", false, time.Now())
	second := env.stats.GetStats(ctx)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.analytics.callCount())

	env.cache.Invalidate(ctx, ViewStats)
	third := env.stats.GetStats(ctx)
	assert.Equal(t, int64(2), third.TotalUsers)
	assert.Equal(t, 2, env.analytics.callCount())
}
