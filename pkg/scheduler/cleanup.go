package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/Letdown2491/waypoint/pkg/metrics"
	"github.com/Letdown2491/waypoint/pkg/retention"
	"github.com/Letdown2491/waypoint/pkg/types"
)

// CleanupSchedule applies schedule.KeepCount/KeepDays, scoped to snapshots
// whose name carries this schedule's prefix, deleting whatever the global
// retention algorithm marks for removal. Exported so the IPC helper's
// CleanupSnapshots method can drive schedule-scoped cleanup on demand,
// outside of a worker's normal post-capture run.
func CleanupSchedule(ctx context.Context, manager Creator, schedule types.Schedule) error {
	if schedule.KeepCount <= 0 && schedule.KeepDays <= 0 {
		return nil
	}
	snaps, err := manager.List()
	if err != nil {
		return err
	}

	var entries []retention.Entry
	for _, snap := range snaps {
		if !strings.HasPrefix(snap.Name, schedule.Prefix+"-") {
			continue
		}
		entries = append(entries, retention.Entry{Name: snap.Name, Timestamp: snap.CreatedAt})
	}
	if len(entries) == 0 {
		return nil
	}

	policy := types.GlobalRetentionPolicy{
		MaxSnapshots: schedule.KeepCount,
		MaxAgeDays:   schedule.KeepDays,
		MinSnapshots: 1,
	}
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RetentionCleanupDuration)

	_, del := retention.Global(entries, policy, time.Now().UTC())

	var firstErr error
	for _, name := range del {
		if err := manager.Delete(ctx, name); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.RetentionDeletedTotal.Inc()
	}
	return firstErr
}
