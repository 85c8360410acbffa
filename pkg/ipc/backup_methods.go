package ipc

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/Letdown2491/waypoint/pkg/auth"
	"github.com/Letdown2491/waypoint/pkg/events"
	"github.com/Letdown2491/waypoint/pkg/types"
)

// ScanBackupDestinations returns a JSON array of eligible backup destination
// mounts (removable, network, or internal). Read-only; skips authorization
// and audit.
func (s *Service) ScanBackupDestinations() (string, *dbus.Error) {
	out := s.readOnly("ScanBackupDestinations", func() (string, error) {
		destinations, err := s.scanner.ScanDestinations()
		if err != nil {
			return "", err
		}
		return toJSON(destinations), nil
	})
	return out, nil
}

// BackupSnapshot replicates snapshotPath to destinationMount, sending it as
// a delta against parentSnapshotPath when one is given, and emits a
// BackupProgress signal per update the engine reports.
func (s *Service) BackupSnapshot(snapshotPath, destinationMount, parentSnapshotPath string, sender dbus.Sender) (bool, string, int64, *dbus.Error) {
	ctx := context.Background()
	var bytesDone int64
	ok, msg := s.gated(ctx, sender, "BackupSnapshot", auth.ActionBackup, snapshotPath, func() (string, error) {
		sink := events.NewProgressSink(8)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for update := range sink {
				s.emitBackupProgress(update)
			}
		}()

		backupPath, size, err := s.backupEng.Backup(ctx, snapshotPath, destinationMount, parentSnapshotPath, sink)
		close(sink)
		<-done
		if err != nil {
			return "", err
		}
		bytesDone = size
		return fmt.Sprintf("backed up to %s", backupPath), nil
	})
	return ok, msg, bytesDone, nil
}

// emitBackupProgress fires the BackupProgress(stage, snapshot_name,
// bytes_done) signal, best effort.
func (s *Service) emitBackupProgress(update types.BackupProgress) {
	if s.conn == nil {
		return
	}
	if err := s.conn.Emit(s.signalPath, interfaceName+".BackupProgress", string(update.Stage), update.SnapshotName, update.BytesDone); err != nil {
		s.logger.Warn().Err(err).Msg("failed to emit BackupProgress signal")
	}
}

// ListBackups returns a JSON array of backup identifiers found on
// destinationMount. Read-only; skips authorization and audit.
func (s *Service) ListBackups(destinationMount string) (string, *dbus.Error) {
	ctx := context.Background()
	out := s.readOnly("ListBackups", func() (string, error) {
		backups, err := s.backupEng.ListBackups(ctx, destinationMount)
		if err != nil {
			return "", err
		}
		return toJSON(backups), nil
	})
	return out, nil
}

// RestoreFromBackup recreates a snapshot subvolume from backupPath under
// snapshotsDir, which must equal the configured on-disk snapshot directory.
// No metadata record is written for the restored subvolume.
func (s *Service) RestoreFromBackup(backupPath, snapshotsDir string, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "RestoreFromBackup", auth.ActionRestore, backupPath, func() (string, error) {
		if err := s.backupEng.RestoreFromBackup(ctx, backupPath, snapshotsDir, s.paths.SnapshotsDirDisk); err != nil {
			return "", err
		}
		return "restored from backup " + backupPath, nil
	})
	return ok, msg, nil
}

// VerifyBackup checks snapshotID on destinationMount against its source
// snapshot at snapshotPath, returning a JSON verification result.
func (s *Service) VerifyBackup(snapshotPath, destinationMount, snapshotID string) (string, *dbus.Error) {
	ctx := context.Background()
	out := s.readOnly("VerifyBackup", func() (string, error) {
		return toJSON(s.backupEng.VerifyBackup(ctx, snapshotPath, destinationMount, snapshotID)), nil
	})
	return out, nil
}
