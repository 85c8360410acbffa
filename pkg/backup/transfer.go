package backup

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Letdown2491/waypoint/pkg/cowfs"
	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// Transfer replicates one captured subvolume into a backup directory.
// Which implementation applies is chosen per destination filesystem kind,
// mirroring a driver-registry: cowTransfer for the CoW filesystem,
// mirrorTransfer for everything else.
type Transfer interface {
	// Transfer replicates source (a captured subvolume's local path) into
	// destDir/subvolName. parentDir, if non-empty, is the previous snapshot
	// directory; its subvolName subdirectory, when present, serves as the
	// incremental parent where the underlying mechanism supports it.
	Transfer(ctx context.Context, source, destDir, subvolName, parentDir string) error
}

// TransferFor selects the Transfer implementation for a destination
// filesystem kind.
func TransferFor(adapter *cowfs.Adapter, destinationFSKind string) Transfer {
	if destinationFSKind == cowFilesystemKind {
		return cowTransfer{adapter: adapter}
	}
	return mirrorTransfer{}
}

// cowTransfer replicates via btrfs send/receive, eligible for incremental
// transfer against a parent subvolume of the same name.
type cowTransfer struct {
	adapter *cowfs.Adapter
}

func (t cowTransfer) Transfer(ctx context.Context, source, destDir, subvolName, parentDir string) error {
	parent := ""
	if parentDir != "" {
		candidate := filepath.Join(parentDir, subvolName)
		if _, err := os.Stat(candidate); err == nil {
			parent = candidate
		}
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create backup directory", err)
	}
	return t.adapter.SendReceive(ctx, source, parent, destDir)
}

// mirrorTransfer copies a captured subvolume's contents using rsync, which
// preserves hard links, xattrs, and ACLs, deletes orphans, writes in place,
// and supports resumption — incrementality for the non-CoW path comes from
// rsync's own in-place update behavior rather than an explicit parent. The
// destination layout mirrors the source: one directory per subvolume name
// under the backup root, matching how RestoreFromBackup and VerifyBackup
// expect a non-CoW backup to be laid out.
type mirrorTransfer struct{}

func (mirrorTransfer) Transfer(ctx context.Context, source, destDir, subvolName, parentDir string) error {
	if _, err := os.Stat(source); err != nil {
		return waypointerr.Wrap(waypointerr.NotFound, "captured subvolume directory missing, skipping", err)
	}

	dest := filepath.Join(destDir, subvolName)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create mirror destination", err)
	}

	cmd := exec.CommandContext(ctx, "rsync", "-aHAX", "--delete", "--inplace", "--partial", source+"/", dest+"/")
	if out, err := cmd.CombinedOutput(); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "rsync failed: "+string(out), err)
	}
	return nil
}
