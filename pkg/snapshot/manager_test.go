package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/cowfs"
	"github.com/Letdown2491/waypoint/pkg/metadata"
	"github.com/Letdown2491/waypoint/pkg/types"
)

type fakeRunner struct{}

func (fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if len(args) >= 2 && args[0] == "subvolume" && args[1] == "show" {
		return []byte("Subvolume ID: 256\nUUID: test-uuid\n"), nil
	}
	return nil, nil
}

func (fakeRunner) RunPiped(ctx context.Context, name1 string, args1 []string, name2 string, args2 []string) ([]byte, error, error) {
	return nil, nil, nil
}

func testManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	dir := t.TempDir()
	adapter := cowfs.NewAdapterWithRunner(fakeRunner{})
	store := metadata.NewStore(filepath.Join(dir, "snapshots.json"))
	snapDir := filepath.Join(dir, "snapshots")

	defaultOpts := []Option{
		WithFilesystemProbe(
			func(string) (bool, error) { return true, nil },
			func(string) (int64, error) { return 1 << 40, nil },
		),
	}
	return NewManager(adapter, store, snapDir, 1<<20, append(defaultOpts, opts...)...)
}

func TestManager_CreateAndGet(t *testing.T) {
	m := testManager(t)

	snap, err := m.Create(context.Background(), "demo", "test snapshot", types.CreatedByManual, nil)
	require.NoError(t, err)
	assert.Equal(t, "demo", snap.Name)
	require.Len(t, snap.Subvolumes, 1)
	assert.Equal(t, "root", snap.Subvolumes[0].DirName)

	got, err := m.Get("demo")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
}

func TestManager_Create_RejectsInvalidName(t *testing.T) {
	m := testManager(t)
	_, err := m.Create(context.Background(), "-bad", "", types.CreatedByManual, nil)
	assert.Error(t, err)
}

func TestManager_Create_RejectsNonCoWFilesystem(t *testing.T) {
	m := testManager(t, WithFilesystemProbe(
		func(string) (bool, error) { return false, nil },
		func(string) (int64, error) { return 1 << 40, nil },
	))
	_, err := m.Create(context.Background(), "demo", "", types.CreatedByManual, nil)
	assert.Error(t, err)
}

func TestManager_Create_RejectsInsufficientSpace(t *testing.T) {
	m := testManager(t, WithFilesystemProbe(
		func(string) (bool, error) { return true, nil },
		func(string) (int64, error) { return 0, nil },
	))
	_, err := m.Create(context.Background(), "demo", "", types.CreatedByManual, nil)
	assert.Error(t, err)
}

func TestManager_DeleteRemovesMetadata(t *testing.T) {
	m := testManager(t)
	_, err := m.Create(context.Background(), "demo", "", types.CreatedByManual, nil)
	require.NoError(t, err)

	require.NoError(t, m.Delete(context.Background(), "demo"))

	_, err = m.Get("demo")
	assert.Error(t, err)
}

func TestManager_List(t *testing.T) {
	m := testManager(t)
	_, err := m.Create(context.Background(), "one", "", types.CreatedByManual, nil)
	require.NoError(t, err)
	_, err = m.Create(context.Background(), "two", "", types.CreatedByManual, nil)
	require.NoError(t, err)

	snaps, err := m.List()
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestManager_Sizes(t *testing.T) {
	m := testManager(t)
	_, err := m.Create(context.Background(), "demo", "", types.CreatedByManual, nil)
	require.NoError(t, err)

	sizes, err := m.Sizes([]string{"demo"})
	require.NoError(t, err)
	assert.Contains(t, sizes, "demo")
	assert.GreaterOrEqual(t, sizes["demo"], int64(0))
}

func TestManager_Verify_UnknownSnapshotFails(t *testing.T) {
	m := testManager(t)
	result := m.Verify(context.Background(), "nope")
	assert.False(t, result.Success)
}

func TestManager_Verify_KnownSnapshotSucceeds(t *testing.T) {
	m := testManager(t)
	_, err := m.Create(context.Background(), "demo", "", types.CreatedByManual, nil)
	require.NoError(t, err)

	result := m.Verify(context.Background(), "demo")
	assert.True(t, result.Success)
}
