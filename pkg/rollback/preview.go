package rollback

import (
	"context"

	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// PreviewResult reports what Restore would do for a snapshot without doing
// it: whether the snapshot is a legacy single-subvolume capture or requires
// deriving a writable root, which path would become the default subvolume,
// and whether an fstab rewrite would occur.
type PreviewResult struct {
	SnapshotName       string   `json:"snapshot_name"`
	Legacy             bool     `json:"legacy"`
	TargetRoot         string   `json:"target_root"`
	SubvolumesAffected []string `json:"subvolumes_affected"`
	FstabRewrite       bool     `json:"fstab_rewrite"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Preview computes what Restore(ctx, name) would do, performing none of its
// side effects: no pre-rollback snapshot is taken, no writable derivative is
// created, and no default subvolume is changed.
func (e *Engine) Preview(ctx context.Context, name string) (PreviewResult, error) {
	snap, err := e.store.Get(name)
	if err != nil {
		return PreviewResult{}, err
	}

	result := PreviewResult{SnapshotName: name}

	if _, err := e.adapter.SubvolumeShow(ctx, snap.Path); err == nil {
		result.Legacy = true
		result.TargetRoot = snap.Path
		return result, nil
	}

	var rootCapture bool
	for _, c := range snap.Subvolumes {
		result.SubvolumesAffected = append(result.SubvolumesAffected, c.MountPoint)
		if c.MountPoint == "/" {
			rootCapture = true
		}
	}
	if !rootCapture {
		return PreviewResult{}, waypointerr.New(waypointerr.PreconditionFailed, "snapshot "+name+" did not capture /")
	}

	result.TargetRoot = writableRootPath(snap)
	result.FstabRewrite = true
	if len(snap.Subvolumes) == 1 {
		result.Warnings = append(result.Warnings, "only / was captured; other mounts will fall back to their live entries")
	}
	return result, nil
}
