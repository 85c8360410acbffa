// Package rollback implements the boot-environment switch that makes a
// snapshot the default root subvolume. It never reboots; that is left to
// the caller.
package rollback

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Letdown2491/waypoint/pkg/cowfs"
	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/metadata"
	"github.com/Letdown2491/waypoint/pkg/metrics"
	"github.com/Letdown2491/waypoint/pkg/snapshot"
	"github.com/Letdown2491/waypoint/pkg/types"
	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

const writableLeafName = "root-writable"

// Engine restores a captured snapshot as the system's default boot
// subvolume.
type Engine struct {
	adapter  *cowfs.Adapter
	store    *metadata.Store
	snapshot *snapshot.Manager
	rootMount string
}

// NewEngine builds an Engine. rootMount is normally "/".
func NewEngine(adapter *cowfs.Adapter, store *metadata.Store, snapshotMgr *snapshot.Manager, rootMount string) *Engine {
	return &Engine{adapter: adapter, store: store, snapshot: snapshotMgr, rootMount: rootMount}
}

// Restore makes name the default subvolume for the root mount. For a
// multi-subvolume capture it first derives a writable "root-writable"
// sibling from the captured root, rewrites its etc/fstab to point every
// captured CoW mount at this rollback's snapshot directory, and targets
// that derivative; a legacy single-subvolume capture targets the captured
// subvolume directly. Either way, an automatic "pre-rollback" snapshot of
// the live root is taken first.
func (e *Engine) Restore(ctx context.Context, name string) error {
	if err := e.restore(ctx, name); err != nil {
		metrics.RollbackTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.RollbackTotal.WithLabelValues("success").Inc()
	return nil
}

func (e *Engine) restore(ctx context.Context, name string) error {
	snap, err := e.store.Get(name)
	if err != nil {
		return err
	}

	if _, err := e.snapshot.Create(ctx, preRollbackName(), "automatic pre-rollback capture", types.CreatedByManual, nil); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create pre-rollback snapshot", err)
	}

	targetRoot, err := e.resolveTargetRoot(ctx, snap)
	if err != nil {
		return err
	}

	info, err := e.adapter.SubvolumeShow(ctx, targetRoot)
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "query target subvolume id", err)
	}
	if err := e.adapter.SetDefault(ctx, info.ID, e.rootMount); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "set default subvolume", err)
	}

	log.WithSnapshot(name).Info().Str("target_root", targetRoot).Msg("rollback target set as default subvolume; reboot required")
	return nil
}

// resolveTargetRoot implements steps 1-3 of the restore procedure: legacy
// single-subvolume captures (the snapshot directory is itself the
// subvolume) are targeted directly, multi-subvolume captures go through a
// freshly derived writable sibling with a rewritten fstab.
func (e *Engine) resolveTargetRoot(ctx context.Context, snap types.Snapshot) (string, error) {
	if _, err := e.adapter.SubvolumeShow(ctx, snap.Path); err == nil {
		// Legacy layout: the snapshot directory is itself the subvolume.
		return snap.Path, nil
	}

	var rootCapture *types.SubvolumeCapture
	for i := range snap.Subvolumes {
		if snap.Subvolumes[i].MountPoint == "/" {
			rootCapture = &snap.Subvolumes[i]
			break
		}
	}
	if rootCapture == nil {
		return "", waypointerr.New(waypointerr.PreconditionFailed, "snapshot "+snap.Name+" did not capture /")
	}

	writablePath := writableRootPath(snap)
	if err := e.adapter.DeleteSubvolume(ctx, writablePath); err != nil {
		log.WithSnapshot(snap.Name).Debug().Err(err).Msg("no stale root-writable sibling to remove")
	}
	if err := e.adapter.CreateRWSnapshot(ctx, rootCapture.LocalPath, writablePath); err != nil {
		return "", waypointerr.Wrap(waypointerr.ExternalFailure, "create writable root derivative", err)
	}

	fstabPath := filepath.Join(writablePath, "etc", "fstab")
	if err := e.rewriteFstabFile(fstabPath, snap); err != nil {
		return "", err
	}

	return writablePath, nil
}

func (e *Engine) rewriteFstabFile(path string, snap types.Snapshot) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "read fstab", err)
	}

	captured := make([]string, len(snap.Subvolumes))
	for i, c := range snap.Subvolumes {
		captured[i] = c.MountPoint
	}

	lines := strings.Split(string(data), "\n")
	rewritten := RewriteFstab(lines, snap.Name, captured)

	if err := os.WriteFile(path, []byte(strings.Join(rewritten, "\n")), 0o644); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "write fstab", err)
	}
	return nil
}

func preRollbackName() string {
	return "waypoint-pre-rollback-" + time.Now().UTC().Format("20060102-150405")
}

// writableRootPath is the path a multi-subvolume capture's writable root
// derivative would occupy.
func writableRootPath(snap types.Snapshot) string {
	return filepath.Join(snap.Path, writableLeafName)
}
