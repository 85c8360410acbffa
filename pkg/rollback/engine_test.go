package rollback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/cowfs"
	"github.com/Letdown2491/waypoint/pkg/metadata"
	"github.com/Letdown2491/waypoint/pkg/snapshot"
	"github.com/Letdown2491/waypoint/pkg/types"
)

// fakeRunner answers `btrfs subvolume show <path>` only for paths present
// in showOutputs, so a test can force the legacy-layout check to fail (and
// thus exercise the multi-subvolume branch) while letting the later query
// on the writable derivative succeed.
type fakeRunner struct {
	showOutputs map[string][]byte
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if len(args) >= 2 && args[0] == "subvolume" && args[1] == "show" {
		path := args[len(args)-1]
		out, ok := f.showOutputs[path]
		if !ok {
			return nil, errors.New("not a subvolume")
		}
		return out, nil
	}
	return nil, nil
}

func (f *fakeRunner) RunPiped(ctx context.Context, name1 string, args1 []string, name2 string, args2 []string) ([]byte, error, error) {
	return nil, nil, nil
}

func TestEngine_Restore_MultiSubvolume(t *testing.T) {
	dir := t.TempDir()
	store := metadata.NewStore(filepath.Join(dir, "snapshots.json"))

	snap := types.Snapshot{
		ID:   "snapshot-20260101-000000",
		Name: "demo",
		Path: filepath.Join(dir, "snapshots", "demo"),
		Subvolumes: []types.SubvolumeCapture{
			{MountPoint: "/", DirName: "root", LocalPath: filepath.Join(dir, "snapshots", "demo", "root")},
		},
	}
	require.NoError(t, os.MkdirAll(snap.Path, 0o755))
	require.NoError(t, store.Put(snap))

	writablePath := filepath.Join(snap.Path, writableLeafName)
	runner := &fakeRunner{showOutputs: map[string][]byte{
		writablePath: []byte("Subvolume ID: 301\nUUID: new-uuid\nParent UUID: -\n"),
	}}
	adapter := cowfs.NewAdapterWithRunner(runner)

	snapStore := metadata.NewStore(filepath.Join(dir, "snapshots.json"))
	snapMgr := snapshot.NewManager(adapter, snapStore, filepath.Join(dir, "snapshots"), 0,
		snapshot.WithFilesystemProbe(
			func(string) (bool, error) { return true, nil },
			func(string) (int64, error) { return 1 << 40, nil },
		),
	)

	engine := NewEngine(adapter, store, snapMgr, "/")
	err := engine.Restore(context.Background(), "demo")
	require.NoError(t, err)
}
