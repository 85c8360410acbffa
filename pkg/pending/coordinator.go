package pending

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/Letdown2491/waypoint/pkg/events"
	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/metadata"
	"github.com/Letdown2491/waypoint/pkg/metrics"
	"github.com/Letdown2491/waypoint/pkg/types"
)

// Backuper is the subset of *backup.Engine the coordinator drives;
// satisfied by *backup.Engine without modification, and substitutable with
// a fake in tests.
type Backuper interface {
	Backup(ctx context.Context, snapshotPath, destinationMount, parentSnapshotPath string, sink events.ProgressSink) (string, int64, error)
}

// Coordinator matches snapshots against destination filters, maintains the
// pending queue, and drives the backup engine on mount and
// snapshot-creation events.
type Coordinator struct {
	store     *Store
	metaStore *metadata.Store
	engine    Backuper
}

// NewCoordinator builds a Coordinator.
func NewCoordinator(store *Store, metaStore *metadata.Store, engine Backuper) *Coordinator {
	return &Coordinator{store: store, metaStore: metaStore, engine: engine}
}

func filterAccepts(filter types.DestinationFilter, isFavorite bool) bool {
	if filter == types.DestinationFilterFavorites {
		return isFavorite
	}
	return true
}

// QueueSnapshotBackup adds a pending entry for every enabled destination
// configured to act on snapshot creation, whose filter accepts snap, and
// which has no existing history record for it.
func (c *Coordinator) QueueSnapshotBackup(snap types.Snapshot, isFavorite bool) error {
	dests, err := c.store.Destinations()
	if err != nil {
		return err
	}
	for uuid, dest := range dests {
		if !dest.Enabled || !dest.OnSnapshotCreation {
			continue
		}
		if !filterAccepts(dest.Filter, isFavorite) {
			continue
		}
		has, err := c.store.HasHistory(snap.ID, uuid)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if err := c.store.AddPending(snap.ID, uuid); err != nil {
			return err
		}
	}
	c.refreshPendingGauge()
	return nil
}

// QueueDestinationSnapshots queues every snapshot matching destinationUUID's
// filter and not already backed up, for a destination whose on_drive_mount
// is true. favorites maps snapshot id to its is_favorite flag.
func (c *Coordinator) QueueDestinationSnapshots(destinationUUID string, allSnapshots []types.Snapshot, favorites map[string]bool) error {
	dest, err := c.store.GetDestination(destinationUUID)
	if err != nil {
		return err
	}
	if !dest.Enabled || !dest.OnDriveMount {
		return nil
	}
	for _, snap := range allSnapshots {
		if !filterAccepts(dest.Filter, favorites[snap.ID]) {
			continue
		}
		has, err := c.store.HasHistory(snap.ID, destinationUUID)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if err := c.store.AddPending(snap.ID, destinationUUID); err != nil {
			return err
		}
	}
	c.refreshPendingGauge()
	return nil
}

// refreshPendingGauge recomputes the pending-queue-size metric, logging
// (without failing the caller) if the store cannot be read.
func (c *Coordinator) refreshPendingGauge() {
	count, err := c.store.PendingCount()
	if err != nil {
		log.WithComponent("pending").Warn().Err(err).Msg("failed to refresh pending backup gauge")
		return
	}
	metrics.PendingBackupsGauge.Set(float64(count))
}

type resolvedPending struct {
	pending types.PendingBackup
	snap    types.Snapshot
	hasSnap bool
}

// ProcessPending drains the pending queue for destinationUUID, processing
// entries strictly oldest-first by source snapshot timestamp (entries whose
// snapshot metadata has since disappeared sort last, tie-broken by snapshot
// id), chaining each successful backup as the parent for the next. After the
// queue drains it applies the destination's retention-days policy.
func (c *Coordinator) ProcessPending(ctx context.Context, destinationUUID, destinationMount, snapshotDir string) (successCount, failCount int, errs []string) {
	entries, err := c.store.PendingForDestination(destinationUUID)
	if err != nil {
		return 0, 0, []string{err.Error()}
	}

	resolved := make([]resolvedPending, 0, len(entries))
	for _, e := range entries {
		snap, err := c.metaStore.GetByID(e.SnapshotID)
		resolved = append(resolved, resolvedPending{pending: e, snap: snap, hasSnap: err == nil})
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		a, b := resolved[i], resolved[j]
		switch {
		case a.hasSnap && b.hasSnap:
			if !a.snap.CreatedAt.Equal(b.snap.CreatedAt) {
				return a.snap.CreatedAt.Before(b.snap.CreatedAt)
			}
			return a.snap.Name < b.snap.Name
		case a.hasSnap && !b.hasSnap:
			return true
		case !a.hasSnap && b.hasSnap:
			return false
		default:
			return a.pending.SnapshotID < b.pending.SnapshotID
		}
	})

	parentPath := ""
	parentID := ""
	if latest, err := c.store.LatestBackup(destinationUUID); err == nil {
		parentPath = latest.BackupPath
		parentID = latest.SnapshotID
	}

	for _, r := range resolved {
		if !r.hasSnap {
			msg := "snapshot metadata no longer exists: " + r.pending.SnapshotID
			_ = c.store.MarkFailed(r.pending.SnapshotID, destinationUUID, msg)
			failCount++
			errs = append(errs, msg)
			continue
		}

		_ = c.store.MarkInProgress(r.pending.SnapshotID, destinationUUID)
		backupPath, size, err := c.engine.Backup(ctx, r.snap.Path, destinationMount, parentPath, nil)
		if err != nil {
			_ = c.store.MarkFailed(r.pending.SnapshotID, destinationUUID, err.Error())
			failCount++
			errs = append(errs, err.Error())
			continue
		}

		incremental := parentPath != ""
		if err := c.store.MarkCompleted(r.pending.SnapshotID, destinationUUID, backupPath, &size, incremental, parentID); err != nil {
			failCount++
			errs = append(errs, err.Error())
			continue
		}
		successCount++
		parentPath = backupPath
		parentID = r.pending.SnapshotID
	}

	if err := c.applyDestinationRetention(destinationUUID); err != nil {
		errs = append(errs, err.Error())
	}

	c.refreshPendingGauge()
	return successCount, failCount, errs
}

// applyDestinationRetention deletes backup directories and history records
// older than the destination's configured retention-days, resolving each
// record's age from its source snapshot's capture timestamp when the
// snapshot is still known, falling back to the record's own completion
// timestamp otherwise.
func (c *Coordinator) applyDestinationRetention(destinationUUID string) error {
	dest, err := c.store.GetDestination(destinationUUID)
	if err != nil || dest.RetentionDays == nil {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -*dest.RetentionDays)

	history, err := c.store.HistoryForDestination(destinationUUID)
	if err != nil {
		return err
	}

	for _, h := range history {
		ts := h.CompletedAt
		if snap, err := c.metaStore.GetByID(h.SnapshotID); err == nil {
			ts = snap.CreatedAt
		}
		if ts.After(cutoff) {
			continue
		}
		if err := os.RemoveAll(h.BackupPath); err != nil {
			log.WithComponent("pending").Warn().Err(err).Str("path", h.BackupPath).Msg("failed to remove backup during destination retention")
			continue
		}
		if err := c.store.RemoveHistory(h.SnapshotID, destinationUUID); err != nil {
			return err
		}
	}
	return nil
}
