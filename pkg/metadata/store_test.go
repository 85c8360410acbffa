package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/types"
)

func newTestStore(t *testing.T) (*Store, string) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshots.json")
	return NewStore(path), dir
}

func TestStore_PutGetList(t *testing.T) {
	store, dir := newTestStore(t)

	snapDir := filepath.Join(dir, "demo")
	require.NoError(t, os.MkdirAll(snapDir, 0o755))

	snap := types.Snapshot{ID: "snapshot-1", Name: "demo", Path: snapDir, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Put(snap))

	got, err := store.Get("demo")
	require.NoError(t, err)
	assert.Equal(t, "snapshot-1", got.ID)

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_GetNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Get("missing")
	assert.Error(t, err)
}

func TestStore_GetByPath(t *testing.T) {
	store, dir := newTestStore(t)
	snapDir := filepath.Join(dir, "demo")
	require.NoError(t, os.MkdirAll(snapDir, 0o755))

	require.NoError(t, store.Put(types.Snapshot{ID: "snapshot-1", Name: "demo", Path: snapDir}))

	got, err := store.GetByPath(snapDir)
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Name)

	_, err = store.GetByPath(filepath.Join(dir, "nowhere"))
	assert.Error(t, err)
}

func TestStore_Delete(t *testing.T) {
	store, dir := newTestStore(t)
	snapDir := filepath.Join(dir, "demo")
	require.NoError(t, os.MkdirAll(snapDir, 0o755))

	require.NoError(t, store.Put(types.Snapshot{ID: "s1", Name: "demo", Path: snapDir}))
	require.NoError(t, store.Delete("demo"))

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 0)
}

func TestStore_ListPrunesMissingPaths(t *testing.T) {
	store, dir := newTestStore(t)

	// one record with a real directory, one pointing at nothing
	okDir := filepath.Join(dir, "ok")
	require.NoError(t, os.MkdirAll(okDir, 0o755))

	require.NoError(t, store.Put(types.Snapshot{ID: "s1", Name: "ok", Path: okDir}))
	require.NoError(t, store.Put(types.Snapshot{ID: "s2", Name: "gone", Path: filepath.Join(dir, "does-not-exist")}))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ok", list[0].Name)
}

func TestStore_ListDedupesKeepingLast(t *testing.T) {
	store, dir := newTestStore(t)
	okDir := filepath.Join(dir, "dup")
	require.NoError(t, os.MkdirAll(okDir, 0o755))

	require.NoError(t, store.Put(types.Snapshot{ID: "dup-1", Name: "first", Path: okDir}))
	// Put with the same ID replaces in-place already, so force a raw
	// duplicate by writing the file directly to exercise List's dedupe path.
	raw := []types.Snapshot{
		{ID: "dup-1", Name: "first", Path: okDir},
		{ID: "dup-1", Name: "second", Path: okDir},
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.path, data, 0o644))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].Name)
}
