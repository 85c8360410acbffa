package rollback

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/cowfs"
	"github.com/Letdown2491/waypoint/pkg/metadata"
	"github.com/Letdown2491/waypoint/pkg/types"
)

func TestPreview_Legacy(t *testing.T) {
	dir := t.TempDir()
	store := metadata.NewStore(filepath.Join(dir, "snapshots.json"))

	snap := types.Snapshot{
		ID:   "snapshot-20260101-000000",
		Name: "legacy",
		Path: filepath.Join(dir, "snapshots", "legacy"),
	}
	require.NoError(t, os.MkdirAll(snap.Path, 0o755))
	require.NoError(t, store.Put(snap))

	runner := &fakeRunner{showOutputs: map[string][]byte{
		snap.Path: []byte("Subvolume ID: 300\nUUID: legacy-uuid\n"),
	}}
	adapter := cowfs.NewAdapterWithRunner(runner)
	engine := NewEngine(adapter, store, nil, "/")

	preview, err := engine.Preview(context.Background(), "legacy")
	require.NoError(t, err)
	assert.True(t, preview.Legacy)
	assert.Equal(t, snap.Path, preview.TargetRoot)
	assert.False(t, preview.FstabRewrite)
}

func TestPreview_MultiSubvolume(t *testing.T) {
	dir := t.TempDir()
	store := metadata.NewStore(filepath.Join(dir, "snapshots.json"))

	snap := types.Snapshot{
		ID:   "snapshot-20260101-000000",
		Name: "demo",
		Path: filepath.Join(dir, "snapshots", "demo"),
		Subvolumes: []types.SubvolumeCapture{
			{MountPoint: "/", DirName: "root", LocalPath: filepath.Join(dir, "snapshots", "demo", "root")},
			{MountPoint: "/home", DirName: "home", LocalPath: filepath.Join(dir, "snapshots", "demo", "home")},
		},
	}
	require.NoError(t, os.MkdirAll(snap.Path, 0o755))
	require.NoError(t, store.Put(snap))

	runner := &fakeRunner{showOutputs: map[string][]byte{}}
	adapter := cowfs.NewAdapterWithRunner(runner)
	engine := NewEngine(adapter, store, nil, "/")

	preview, err := engine.Preview(context.Background(), "demo")
	require.NoError(t, err)
	assert.False(t, preview.Legacy)
	assert.Equal(t, writableRootPath(snap), preview.TargetRoot)
	assert.True(t, preview.FstabRewrite)
	assert.ElementsMatch(t, []string{"/", "/home"}, preview.SubvolumesAffected)
}

func TestPreview_MissingRootCaptureFails(t *testing.T) {
	dir := t.TempDir()
	store := metadata.NewStore(filepath.Join(dir, "snapshots.json"))

	snap := types.Snapshot{
		ID:   "snapshot-20260101-000000",
		Name: "home-only",
		Path: filepath.Join(dir, "snapshots", "home-only"),
		Subvolumes: []types.SubvolumeCapture{
			{MountPoint: "/home", DirName: "home", LocalPath: filepath.Join(dir, "snapshots", "home-only", "home")},
		},
	}
	require.NoError(t, store.Put(snap))

	runner := &fakeRunner{showOutputs: map[string][]byte{}}
	adapter := cowfs.NewAdapterWithRunner(runner)
	engine := NewEngine(adapter, store, nil, "/")

	_, err := engine.Preview(context.Background(), "home-only")
	assert.Error(t, err)
}
