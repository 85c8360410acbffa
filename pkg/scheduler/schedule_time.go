package scheduler

import (
	"fmt"
	"time"

	"github.com/Letdown2491/waypoint/pkg/types"
	"github.com/Letdown2491/waypoint/pkg/validate"
)

// nextRunDuration computes how long a worker for schedule should sleep
// before its next capture, relative to now.
func nextRunDuration(s types.Schedule, now time.Time) (time.Duration, error) {
	switch s.Kind {
	case types.ScheduleHourly:
		return nextHourly(now), nil
	case types.ScheduleDaily:
		return nextDaily(s, now)
	case types.ScheduleWeekly:
		return nextWeekly(s, now)
	case types.ScheduleMonthly:
		return nextMonthly(s, now)
	default:
		return 0, fmt.Errorf("unknown schedule kind: %q", s.Kind)
	}
}

func nextHourly(now time.Time) time.Duration {
	next := now.Truncate(time.Hour).Add(time.Hour)
	return next.Sub(now)
}

func parseTimeOfDay(s string) (hh, mm int, err error) {
	if !validate.TimeOfDay(s) {
		return 0, 0, fmt.Errorf("invalid time_of_day: %q", s)
	}
	hh = int(s[0]-'0')*10 + int(s[1]-'0')
	mm = int(s[3]-'0')*10 + int(s[4]-'0')
	return hh, mm, nil
}

func nextDaily(s types.Schedule, now time.Time) (time.Duration, error) {
	hh, mm, err := parseTimeOfDay(s.TimeOfDay)
	if err != nil {
		return 0, err
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
	if !target.After(now) {
		target = target.Add(24 * time.Hour)
	}
	return target.Sub(now), nil
}

func nextWeekly(s types.Schedule, now time.Time) (time.Duration, error) {
	hh, mm, err := parseTimeOfDay(s.TimeOfDay)
	if err != nil {
		return 0, err
	}
	if s.DayOfWeek == nil || !validate.DayOfWeek(*s.DayOfWeek) {
		return 0, fmt.Errorf("weekly schedule requires a valid day_of_week")
	}
	daysUntil := (*s.DayOfWeek - int(now.Weekday()) + 7) % 7
	targetDay := now.AddDate(0, 0, daysUntil)
	target := time.Date(targetDay.Year(), targetDay.Month(), targetDay.Day(), hh, mm, 0, 0, now.Location())
	if daysUntil == 0 && !target.After(now) {
		target = target.AddDate(0, 0, 7)
	}
	return target.Sub(now), nil
}

func nextMonthly(s types.Schedule, now time.Time) (time.Duration, error) {
	hh, mm, err := parseTimeOfDay(s.TimeOfDay)
	if err != nil {
		return 0, err
	}
	if s.DayOfMonth == nil || !validate.DayOfMonth(*s.DayOfMonth) {
		return 0, fmt.Errorf("monthly schedule requires a valid day_of_month")
	}
	target := time.Date(now.Year(), now.Month(), *s.DayOfMonth, hh, mm, 0, 0, now.Location())
	if !target.After(now) {
		// Approximates "next month, same day" as +30 days rather than
		// resolving the calendar month boundary exactly.
		target = target.AddDate(0, 0, 30)
	}
	return target.Sub(now), nil
}
