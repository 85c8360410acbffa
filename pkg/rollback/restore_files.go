package rollback

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/types"
	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// RestoreFilesResult reports the outcome of a selective file restore.
type RestoreFilesResult struct {
	Restored []string `json:"restored"`
	Skipped  []string `json:"skipped"`
}

// RestoreFiles copies the requested relative paths out of snapshotName's
// captured root and into targetDir, without touching the default subvolume
// or taking a pre-rollback snapshot. Each path is resolved against the
// snapshot's root subvolume (or, for a legacy single-subvolume capture, the
// snapshot directory itself) and rejected if it would escape that base
// through a ".." component or an absolute path. When overwrite is false, a
// path that already exists under targetDir is skipped rather than
// clobbered.
func (e *Engine) RestoreFiles(ctx context.Context, snapshotName string, paths []string, targetDir string, overwrite bool) (RestoreFilesResult, error) {
	snap, err := e.store.Get(snapshotName)
	if err != nil {
		return RestoreFilesResult{}, err
	}

	base, err := e.restoreBase(ctx, snap)
	if err != nil {
		return RestoreFilesResult{}, err
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return RestoreFilesResult{}, waypointerr.Wrap(waypointerr.ExternalFailure, "create restore target directory", err)
	}

	var result RestoreFilesResult
	for _, rel := range paths {
		cleanRel, err := sanitizeRelativePath(rel)
		if err != nil {
			log.WithSnapshot(snapshotName).Warn().Str("path", rel).Err(err).Msg("rejecting unsafe restore path")
			result.Skipped = append(result.Skipped, rel)
			continue
		}

		src := filepath.Join(base, cleanRel)
		dst := filepath.Join(targetDir, cleanRel)

		if !overwrite {
			if _, err := os.Stat(dst); err == nil {
				result.Skipped = append(result.Skipped, rel)
				continue
			}
		}

		if err := copyPath(src, dst); err != nil {
			return result, waypointerr.Wrap(waypointerr.ExternalFailure, "restore "+rel, err)
		}
		result.Restored = append(result.Restored, rel)
	}
	return result, nil
}

// restoreBase resolves the directory that RestoreFiles' relative paths are
// read from: the captured root subvolume's local path, or the snapshot
// directory itself for a legacy single-subvolume capture.
func (e *Engine) restoreBase(ctx context.Context, snap types.Snapshot) (string, error) {
	if _, err := e.adapter.SubvolumeShow(ctx, snap.Path); err == nil {
		return snap.Path, nil
	}
	for _, c := range snap.Subvolumes {
		if c.MountPoint == "/" {
			return c.LocalPath, nil
		}
	}
	return "", waypointerr.New(waypointerr.PreconditionFailed, "snapshot "+snap.Name+" did not capture /")
}

// sanitizeRelativePath rejects absolute paths and any path whose cleaned
// form climbs out of its base directory.
func sanitizeRelativePath(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", waypointerr.New(waypointerr.PreconditionFailed, "path must be relative")
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", waypointerr.New(waypointerr.PreconditionFailed, "path escapes snapshot root")
	}
	return clean, nil
}

func copyPath(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return copyDir(src, dst, info)
	}
	return copyFile(src, dst, info)
}

func copyDir(src, dst string, info os.FileInfo) error {
	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyPath(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, info os.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
