package backup

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Letdown2491/waypoint/pkg/cowfs"
	"github.com/Letdown2491/waypoint/pkg/events"
	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/metadata"
	"github.com/Letdown2491/waypoint/pkg/metrics"
	"github.com/Letdown2491/waypoint/pkg/types"
	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

const backupsDirName = "waypoint-backups"

// Engine replicates snapshots to validated external destinations.
type Engine struct {
	adapter *cowfs.Adapter
	scanner *Scanner
	store   *metadata.Store
}

// NewEngine builds an Engine.
func NewEngine(adapter *cowfs.Adapter, scanner *Scanner, store *metadata.Store) *Engine {
	return &Engine{adapter: adapter, scanner: scanner, store: store}
}

// Backup replicates the snapshot at snapshotPath to destinationMount,
// optionally incrementally against parentSnapshotPath, reporting progress
// on sink (which may be nil).
func (e *Engine) Backup(ctx context.Context, snapshotPath, destinationMount, parentSnapshotPath string, sink events.ProgressSink) (string, int64, error) {
	timer := metrics.NewTimer()
	path, size, err := e.backup(ctx, snapshotPath, destinationMount, parentSnapshotPath, sink)
	timer.ObserveDuration(metrics.BackupDuration)
	if err != nil {
		metrics.BackupTotal.WithLabelValues("failure").Inc()
		return path, size, err
	}
	metrics.BackupTotal.WithLabelValues("success").Inc()
	metrics.BackupBytesTotal.Add(float64(size))
	return path, size, nil
}

func (e *Engine) backup(ctx context.Context, snapshotPath, destinationMount, parentSnapshotPath string, sink events.ProgressSink) (string, int64, error) {
	dest, err := e.scanner.ValidateDestination(destinationMount)
	if err != nil {
		return "", 0, err
	}

	snap, err := e.store.GetByPath(snapshotPath)
	if err != nil {
		return "", 0, err
	}

	backupDir := filepath.Join(destinationMount, backupsDirName, snap.Name)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", 0, waypointerr.Wrap(waypointerr.ExternalFailure, "create backup directory", err)
	}

	progress := func(p types.BackupProgress) {
		if sink != nil && !sink.TrySend(p) {
			logger := log.WithSnapshot(snap.Name)
			logger.Warn().Str("stage", string(p.Stage)).Msg("progress channel full, dropping update")
		}
	}
	progress(types.BackupProgress{Stage: types.BackupStagePreparing, SnapshotName: snap.Name})
	progress(types.BackupProgress{Stage: types.BackupStageTransferring, SnapshotName: snap.Name})

	transfer := TransferFor(e.adapter, dest.FilesystemKind)
	for _, subvol := range snap.Subvolumes {
		if err := transfer.Transfer(ctx, subvol.LocalPath, backupDir, subvol.DirName, parentSnapshotPath); err != nil {
			if waypointerr.KindOf(err) == waypointerr.NotFound {
				log.WithSnapshot(snap.Name).Warn().Str("subvolume", subvol.DirName).Msg("skipping subvolume with no root/ directory")
				continue
			}
			return "", 0, waypointerr.Wrap(waypointerr.ExternalFailure, "transfer subvolume "+subvol.DirName, err)
		}
	}

	size, err := dirSize(backupDir)
	if err != nil {
		return "", 0, waypointerr.Wrap(waypointerr.ExternalFailure, "compute backup size", err)
	}

	progress(types.BackupProgress{Stage: types.BackupStageComplete, SnapshotName: snap.Name, BytesDone: size})

	return backupDir, size, nil
}

// ListBackups enumerates subdirectories under
// <destination>/waypoint-backups/ that are themselves a CoW subvolume or
// contain at least one of the usual system directories.
func (e *Engine) ListBackups(ctx context.Context, destinationMount string) ([]string, error) {
	root := filepath.Join(destinationMount, backupsDirName)
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, waypointerr.Wrap(waypointerr.ExternalFailure, "list backups", err)
	}

	var out []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if e.looksLikeBackup(ctx, path) {
			out = append(out, entry.Name())
		}
	}
	return out, nil
}

func (e *Engine) looksLikeBackup(ctx context.Context, path string) bool {
	if _, err := e.adapter.SubvolumeShow(ctx, path); err == nil {
		return true
	}
	for _, leaf := range []string{"etc", "home", "usr"} {
		if _, err := os.Stat(filepath.Join(path, leaf)); err == nil {
			return true
		}
	}
	return false
}

// RestoreFromBackup validates backupPath and requires snapshotsDir to
// equal the configured snapshot directory, re-verifying existence after
// canonicalization to narrow the time-of-check/time-of-use window. A CoW
// backup is sent/received directly; otherwise a fresh writable subvolume
// is created and the backup mirrored into its root/ subdirectory, deleted
// on failure.
func (e *Engine) RestoreFromBackup(ctx context.Context, backupPath, snapshotsDir, configuredSnapshotDir string) error {
	if _, err := e.scanner.ValidateBackupPath(backupPath); err != nil {
		return err
	}
	if filepath.Clean(snapshotsDir) != filepath.Clean(configuredSnapshotDir) {
		return waypointerr.New(waypointerr.PreconditionFailed, "snapshots_dir does not match the configured snapshot directory")
	}

	canonPath, err := filepath.Abs(backupPath)
	if err != nil {
		return waypointerr.Wrap(waypointerr.PreconditionFailed, "canonicalize backup path", err)
	}
	if _, err := os.Stat(canonPath); err != nil {
		return waypointerr.Wrap(waypointerr.NotFound, "backup path no longer exists", err)
	}

	name := filepath.Base(canonPath)
	dest := filepath.Join(snapshotsDir, name)

	if _, err := e.adapter.SubvolumeShow(ctx, canonPath); err == nil {
		return e.adapter.SendReceive(ctx, canonPath, "", snapshotsDir)
	}

	return e.createAndMirror(ctx, canonPath, dest)
}

// createAndMirror restores the default "/" subvolume of a non-CoW backup:
// the backup directory holds one subdirectory per captured subvolume name
// (see mirrorTransfer), so the root mount's content lives at
// <backupPath>/root/. The new subvolume is given the same layout a fresh
// capture would have, so its content lands under a matching root/
// subdirectory rather than at the subvolume's top level.
func (e *Engine) createAndMirror(ctx context.Context, backupPath, dest string) error {
	source := filepath.Join(backupPath, "root")
	if _, err := os.Stat(source); err != nil {
		return waypointerr.Wrap(waypointerr.NotFound, "backup has no root subvolume directory", err)
	}

	if err := e.adapter.CreateSubvolume(ctx, dest); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create restored subvolume", err)
	}

	destRoot := filepath.Join(dest, "root")
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		_ = e.adapter.DeleteSubvolume(ctx, dest)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create restored root directory", err)
	}

	cmd := exec.CommandContext(ctx, "rsync", "-aHAX", "--delete", source+"/", destRoot+"/")
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = e.adapter.DeleteSubvolume(ctx, dest)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "rsync restore failed: "+string(out), err)
	}
	return nil
}

// VerifyBackup checks that snapshotPath exists, the destination is valid,
// the backup directory exists, and its contents are plausible: a valid
// subvolume for CoW destinations, or a matching file count and apparent
// size within 5% of the source for non-CoW destinations. It does not check
// that snapshotPath lies under the configured snapshot directory.
func (e *Engine) VerifyBackup(ctx context.Context, snapshotPath, destinationMount, snapshotID string) types.VerifyResult {
	var details []string

	if _, err := os.Stat(snapshotPath); err != nil {
		return types.VerifyResult{Success: false, Message: "source snapshot not found", Details: []string{err.Error()}}
	}
	details = append(details, "source snapshot exists")

	dest, err := e.scanner.ValidateDestination(destinationMount)
	if err != nil {
		return types.VerifyResult{Success: false, Message: "destination is not valid", Details: []string{err.Error()}}
	}
	details = append(details, "destination is valid")

	backupDir := filepath.Join(destinationMount, backupsDirName, snapshotID)
	if _, err := os.Stat(backupDir); err != nil {
		return types.VerifyResult{Success: false, Message: "backup directory missing", Details: []string{err.Error()}}
	}
	details = append(details, "backup directory exists")

	if dest.FilesystemKind == cowFilesystemKind {
		if _, err := e.adapter.SubvolumeShow(ctx, backupDir); err != nil {
			return types.VerifyResult{Success: false, Message: "backup is not a valid subvolume", Details: append(details, err.Error())}
		}
		details = append(details, "backup is a valid subvolume")
		return types.VerifyResult{Success: true, Message: "backup verified", Details: details}
	}

	srcCount, srcSize, err := countAndSize(snapshotPath)
	if err != nil {
		return types.VerifyResult{Success: false, Message: "failed to inspect source snapshot", Details: append(details, err.Error())}
	}
	dstCount, dstSize, err := countAndSize(backupDir)
	if err != nil {
		return types.VerifyResult{Success: false, Message: "failed to inspect backup contents", Details: append(details, err.Error())}
	}

	if srcCount != dstCount {
		details = append(details, "file count mismatch")
		return types.VerifyResult{Success: false, Message: "file count does not match source", Details: details}
	}
	details = append(details, "file count matches source")

	if !withinFivePercent(srcSize, dstSize) {
		details = append(details, "size delta exceeds 5%")
		return types.VerifyResult{Success: false, Message: "backup size deviates from source by more than 5%", Details: details}
	}
	details = append(details, "size within 5% of source")

	return types.VerifyResult{Success: true, Message: "backup verified", Details: details}
}

func withinFivePercent(src, dst int64) bool {
	if src == 0 {
		return dst == 0
	}
	delta := src - dst
	if delta < 0 {
		delta = -delta
	}
	return float64(delta)/float64(src) <= 0.05
}

func countAndSize(root string) (int, int64, error) {
	var count int
	var size int64
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			count++
			size += info.Size()
		}
		return nil
	})
	return count, size, err
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
