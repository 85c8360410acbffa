package retention

import (
	"fmt"
	"sort"
	"time"

	"github.com/Letdown2491/waypoint/pkg/types"
)

// Entry is the minimal {name, timestamp} pair both retention algorithms
// operate over.
type Entry struct {
	Name      string
	Timestamp time.Time
}

type bucketSpec struct {
	limit   int
	key     func(time.Time) string
	horizon func(limit int) time.Duration
}

// Timeline applies the per-schedule calendar-bucket policy: for each
// enabled bucket kind (limit > 0), the most recent entry in each distinct
// bucket is kept, up to limit buckets, as long as the entry falls within
// that bucket kind's horizon. The monthly horizon approximates a month as
// 30 days and the yearly horizon approximates a year as 365 days. The
// union of names kept by any bucket kind is retained; everything else is
// in the delete set.
func Timeline(entries []Entry, limits types.TimelineRetentionPolicy, now time.Time) (keep, del []string) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })

	specs := []bucketSpec{
		{limits.Hourly, hourlyKey, func(l int) time.Duration { return time.Duration(l) * time.Hour }},
		{limits.Daily, dailyKey, func(l int) time.Duration { return time.Duration(l) * 24 * time.Hour }},
		{limits.Weekly, weeklyKey, func(l int) time.Duration { return time.Duration(l) * 7 * 24 * time.Hour }},
		{limits.Monthly, monthlyKey, func(l int) time.Duration { return time.Duration(l) * 30 * 24 * time.Hour }},
		{limits.Yearly, yearlyKey, func(l int) time.Duration { return time.Duration(l) * 365 * 24 * time.Hour }},
	}

	keepSet := make(map[string]bool, len(sorted))
	for _, spec := range specs {
		if spec.limit <= 0 {
			continue
		}
		horizon := spec.horizon(spec.limit)
		seenBuckets := make(map[string]bool, spec.limit)
		for _, e := range sorted {
			if len(seenBuckets) >= spec.limit {
				break
			}
			if now.Sub(e.Timestamp) > horizon {
				continue
			}
			key := spec.key(e.Timestamp)
			if seenBuckets[key] {
				continue
			}
			seenBuckets[key] = true
			keepSet[e.Name] = true
		}
	}

	for _, e := range sorted {
		if keepSet[e.Name] {
			keep = append(keep, e.Name)
		} else {
			del = append(del, e.Name)
		}
	}
	return keep, del
}

func hourlyKey(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), t.YearDay(), t.Hour())
}

func dailyKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), t.YearDay())
}

func weeklyKey(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%d-W%d", y, w)
}

func monthlyKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}

func yearlyKey(t time.Time) string {
	return fmt.Sprintf("%d", t.Year())
}
