package retention

import (
	"sort"
	"strings"
	"time"

	"github.com/Letdown2491/waypoint/pkg/types"
)

// Global applies the admin-wide count/age cap: the most recent
// MinSnapshots entries and any entry whose name contains a keep pattern
// are always retained; of the rest, an entry is deleted when it falls
// outside the most recent MaxSnapshots (if set) or its age exceeds
// MaxAgeDays (if set). An entry not flagged by either cap is retained.
func Global(entries []Entry, policy types.GlobalRetentionPolicy, now time.Time) (keep, del []string) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	n := len(sorted)
	keepSet := make(map[string]bool, n)

	minKeep := policy.MinSnapshots
	if minKeep > n {
		minKeep = n
	}
	for i := n - minKeep; i < n; i++ {
		if i >= 0 {
			keepSet[sorted[i].Name] = true
		}
	}

	for _, e := range sorted {
		if keepSet[e.Name] {
			continue
		}
		if matchesAny(e.Name, policy.KeepPatterns) {
			keepSet[e.Name] = true
		}
	}

	for i, e := range sorted {
		if keepSet[e.Name] {
			continue
		}
		rankFromNewest := n - 1 - i
		deleteByCount := policy.MaxSnapshots > 0 && rankFromNewest >= policy.MaxSnapshots
		age := now.Sub(e.Timestamp)
		deleteByAge := policy.MaxAgeDays > 0 && age > time.Duration(policy.MaxAgeDays)*24*time.Hour
		if !deleteByCount && !deleteByAge {
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

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(name, p) {
			return true
		}
	}
	return false
}
