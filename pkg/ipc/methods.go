package ipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/Letdown2491/waypoint/pkg/auth"
	"github.com/Letdown2491/waypoint/pkg/types"
)

func errorJSON(err error) string {
	data, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
	return string(data)
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return errorJSON(err)
	}
	return string(data)
}

// CreateSnapshot captures subvolumes under name.
func (s *Service) CreateSnapshot(name, description string, subvolumes []string, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "CreateSnapshot", auth.ActionCreate, name, func() (string, error) {
		snap, err := s.snapshots.Create(ctx, name, description, types.CreatedByManual, subvolumes)
		if err != nil {
			return "", err
		}
		s.emitSnapshotCreated(snap.Name, types.CreatedByManual)
		if s.pending != nil {
			// Favorite status is assigned by the user after capture, never known
			// at creation time, so new snapshots always queue as non-favorite.
			if err := s.pending.QueueSnapshotBackup(snap, false); err != nil {
				s.logger.Warn().Err(err).Str("snapshot", snap.Name).Msg("failed to queue automatic destination backups")
			}
		}
		return "snapshot " + name + " created", nil
	})
	return ok, msg, nil
}

// DeleteSnapshot removes name.
func (s *Service) DeleteSnapshot(name string, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "DeleteSnapshot", auth.ActionDelete, name, func() (string, error) {
		if err := s.snapshots.Delete(ctx, name); err != nil {
			return "", err
		}
		return "snapshot " + name + " deleted", nil
	})
	return ok, msg, nil
}

// RestoreSnapshot makes name the default boot subvolume.
func (s *Service) RestoreSnapshot(name string, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "RestoreSnapshot", auth.ActionRestore, name, func() (string, error) {
		if err := s.rollback.Restore(ctx, name); err != nil {
			return "", err
		}
		return "snapshot " + name + " set as default subvolume; reboot required", nil
	})
	return ok, msg, nil
}

// ListSnapshots returns a JSON array of every known snapshot.
func (s *Service) ListSnapshots() (string, *dbus.Error) {
	out := s.readOnly("ListSnapshots", func() (string, error) {
		snaps, err := s.snapshots.List()
		if err != nil {
			return "", err
		}
		return toJSON(snaps), nil
	})
	return out, nil
}

// GetSnapshotSizes returns a JSON map of name to apparent size in bytes.
func (s *Service) GetSnapshotSizes(names []string) (string, *dbus.Error) {
	out := s.readOnly("GetSnapshotSizes", func() (string, error) {
		sizes, err := s.snapshots.Sizes(names)
		if err != nil {
			return "", err
		}
		return toJSON(sizes), nil
	})
	return out, nil
}

// VerifySnapshot returns a JSON verification result for name.
func (s *Service) VerifySnapshot(name string) (string, *dbus.Error) {
	ctx := context.Background()
	out := s.readOnly("VerifySnapshot", func() (string, error) {
		return toJSON(s.snapshots.Verify(ctx, name)), nil
	})
	return out, nil
}

// PreviewRestore returns a JSON preview of what RestoreSnapshot(name) would
// do, without performing it. Not read-only in the authorization sense, so
// it is still gated and audited like a state-changing call even though it
// has no side effects.
func (s *Service) PreviewRestore(name string, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "PreviewRestore", auth.ActionPreview, name, func() (string, error) {
		preview, err := s.rollback.Preview(ctx, name)
		if err != nil {
			return "", err
		}
		return toJSON(preview), nil
	})
	return ok, msg, nil
}

// RestoreFiles extracts paths from snapshot into targetDir.
func (s *Service) RestoreFiles(snapshot string, paths []string, targetDir string, overwrite bool, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "RestoreFiles", auth.ActionRestoreFiles, snapshot, func() (string, error) {
		result, err := s.rollback.RestoreFiles(ctx, snapshot, paths, targetDir, overwrite)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("restored %d of %d requested paths", len(result.Restored), len(paths)), nil
	})
	return ok, msg, nil
}

// CompareSnapshots returns a JSON diff between oldName and newName. Not on
// the read-only carve-out, so it is gated and audited even though it
// mutates nothing.
func (s *Service) CompareSnapshots(oldName, newName string, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "CompareSnapshots", auth.ActionCompare, oldName+".."+newName, func() (string, error) {
		result, err := s.rollback.Compare(ctx, oldName, newName)
		if err != nil {
			return "", err
		}
		return toJSON(result), nil
	})
	return ok, msg, nil
}
