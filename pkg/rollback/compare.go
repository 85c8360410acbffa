package rollback

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// CompareResult is the structured diff between two snapshots' captured root
// trees.
type CompareResult struct {
	Old      string   `json:"old"`
	New      string   `json:"new"`
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// Compare walks the captured root of oldName and newName and reports which
// relative paths were added, removed, or modified (by size or modification
// time). This is a full tree walk of both snapshots and can run long
// against large captures.
func (e *Engine) Compare(ctx context.Context, oldName, newName string) (CompareResult, error) {
	oldSnap, err := e.store.Get(oldName)
	if err != nil {
		return CompareResult{}, err
	}
	newSnap, err := e.store.Get(newName)
	if err != nil {
		return CompareResult{}, err
	}

	oldBase, err := e.restoreBase(ctx, oldSnap)
	if err != nil {
		return CompareResult{}, err
	}
	newBase, err := e.restoreBase(ctx, newSnap)
	if err != nil {
		return CompareResult{}, err
	}

	oldFiles, err := walkRelative(oldBase)
	if err != nil {
		return CompareResult{}, waypointerr.Wrap(waypointerr.ExternalFailure, "walk "+oldName, err)
	}
	newFiles, err := walkRelative(newBase)
	if err != nil {
		return CompareResult{}, waypointerr.Wrap(waypointerr.ExternalFailure, "walk "+newName, err)
	}

	result := CompareResult{Old: oldName, New: newName}
	for rel, newInfo := range newFiles {
		oldInfo, ok := oldFiles[rel]
		if !ok {
			result.Added = append(result.Added, rel)
			continue
		}
		if oldInfo.size != newInfo.size || oldInfo.modTime != newInfo.modTime {
			result.Modified = append(result.Modified, rel)
		}
	}
	for rel := range oldFiles {
		if _, ok := newFiles[rel]; !ok {
			result.Removed = append(result.Removed, rel)
		}
	}
	return result, nil
}

func walkRelative(base string) (map[string]statEntry, error) {
	out := make(map[string]statEntry)
	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		out[rel] = statEntry{size: info.Size(), modTime: info.ModTime().UnixNano()}
		return nil
	})
	return out, err
}

type statEntry struct {
	size    int64
	modTime int64
}
