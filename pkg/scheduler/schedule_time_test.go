package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/types"
)

func intPtr(i int) *int { return &i }

func TestNextRunDuration_Hourly(t *testing.T) {
	now := time.Date(2026, 7, 31, 14, 22, 10, 0, time.UTC)
	dur, err := nextRunDuration(types.Schedule{Kind: types.ScheduleHourly}, now)
	require.NoError(t, err)
	assert.Equal(t, 37*time.Minute+50*time.Second, dur)
}

func TestNextRunDuration_DailyLaterToday(t *testing.T) {
	now := time.Date(2026, 7, 31, 1, 0, 0, 0, time.UTC)
	dur, err := nextRunDuration(types.Schedule{Kind: types.ScheduleDaily, TimeOfDay: "02:00"}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, dur)
}

func TestNextRunDuration_DailyAlreadyPast(t *testing.T) {
	now := time.Date(2026, 7, 31, 3, 0, 0, 0, time.UTC)
	dur, err := nextRunDuration(types.Schedule{Kind: types.ScheduleDaily, TimeOfDay: "02:00"}, now)
	require.NoError(t, err)
	assert.Equal(t, 23*time.Hour, dur)
}

func TestNextRunDuration_DailyMissingTimeOfDay(t *testing.T) {
	_, err := nextRunDuration(types.Schedule{Kind: types.ScheduleDaily}, time.Now())
	assert.Error(t, err)
}

func TestNextRunDuration_WeeklyLaterToday(t *testing.T) {
	// 2026-07-31 is a Friday (weekday 5).
	now := time.Date(2026, 7, 31, 1, 0, 0, 0, time.UTC)
	dur, err := nextRunDuration(types.Schedule{Kind: types.ScheduleWeekly, TimeOfDay: "02:00", DayOfWeek: intPtr(5)}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, dur)
}

func TestNextRunDuration_WeeklyTodayAlreadyPast(t *testing.T) {
	now := time.Date(2026, 7, 31, 3, 0, 0, 0, time.UTC)
	dur, err := nextRunDuration(types.Schedule{Kind: types.ScheduleWeekly, TimeOfDay: "02:00", DayOfWeek: intPtr(5)}, now)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour-time.Hour, dur)
}

func TestNextRunDuration_WeeklyFutureDay(t *testing.T) {
	// Friday -> next Sunday (0) is 2 days away.
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	dur, err := nextRunDuration(types.Schedule{Kind: types.ScheduleWeekly, TimeOfDay: "02:00", DayOfWeek: intPtr(0)}, now)
	require.NoError(t, err)
	want := time.Date(2026, 8, 2, 2, 0, 0, 0, time.UTC).Sub(now)
	assert.Equal(t, want, dur)
}

func TestNextRunDuration_WeeklyMissingDayOfWeek(t *testing.T) {
	_, err := nextRunDuration(types.Schedule{Kind: types.ScheduleWeekly, TimeOfDay: "02:00"}, time.Now())
	assert.Error(t, err)
}

func TestNextRunDuration_MonthlyFutureThisMonth(t *testing.T) {
	now := time.Date(2026, 7, 10, 1, 0, 0, 0, time.UTC)
	dur, err := nextRunDuration(types.Schedule{Kind: types.ScheduleMonthly, TimeOfDay: "02:00", DayOfMonth: intPtr(15)}, now)
	require.NoError(t, err)
	want := time.Date(2026, 7, 15, 2, 0, 0, 0, time.UTC).Sub(now)
	assert.Equal(t, want, dur)
}

func TestNextRunDuration_MonthlyDayAlreadyPassed(t *testing.T) {
	now := time.Date(2026, 7, 20, 1, 0, 0, 0, time.UTC)
	dur, err := nextRunDuration(types.Schedule{Kind: types.ScheduleMonthly, TimeOfDay: "02:00", DayOfMonth: intPtr(15)}, now)
	require.NoError(t, err)
	target := time.Date(2026, 7, 15, 2, 0, 0, 0, time.UTC).AddDate(0, 0, 30)
	assert.Equal(t, target.Sub(now), dur)
}

func TestNextRunDuration_MonthlyMissingDayOfMonth(t *testing.T) {
	_, err := nextRunDuration(types.Schedule{Kind: types.ScheduleMonthly, TimeOfDay: "02:00"}, time.Now())
	assert.Error(t, err)
}

func TestNextRunDuration_UnknownKind(t *testing.T) {
	_, err := nextRunDuration(types.Schedule{Kind: "bogus"}, time.Now())
	assert.Error(t, err)
}
