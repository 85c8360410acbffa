package pending

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	return NewStore(filepath.Join(t.TempDir(), "backup.yaml"))
}

func TestStore_AddPendingIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddPending("snapshot-1", "uuid-1"))
	require.NoError(t, s.AddPending("snapshot-1", "uuid-1"))

	entries, err := s.PendingForDestination("uuid-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_MarkCompletedRemovesPendingAppendsHistory(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddPending("snapshot-1", "uuid-1"))

	size := int64(1024)
	require.NoError(t, s.MarkCompleted("snapshot-1", "uuid-1", "/mnt/backup1/waypoint-backups/snapshot-1", &size, false, ""))

	entries, err := s.PendingForDestination("uuid-1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	latest, err := s.LatestBackup("uuid-1")
	require.NoError(t, err)
	assert.Equal(t, "snapshot-1", latest.SnapshotID)
}

func TestStore_MarkFailedThenRetry(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddPending("snapshot-1", "uuid-1"))
	require.NoError(t, s.MarkFailed("snapshot-1", "uuid-1", "disk full"))

	entries, err := s.PendingForDestination("uuid-1")
	require.NoError(t, err)
	assert.Empty(t, entries, "failed entries are not pending")

	require.NoError(t, s.Retry("snapshot-1", "uuid-1"))
	entries, err = s.PendingForDestination("uuid-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.PendingStatusPending, entries[0].Status)
	assert.Equal(t, 1, entries[0].RetryCount)
}

func TestStore_LatestBackupNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LatestBackup("uuid-missing")
	assert.Error(t, err)
}

func TestStore_HasHistory(t *testing.T) {
	s := newTestStore(t)
	size := int64(100)
	require.NoError(t, s.MarkCompleted("snapshot-1", "uuid-1", "/path", &size, false, ""))

	has, err := s.HasHistory("snapshot-1", "uuid-1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasHistory("snapshot-2", "uuid-1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_UpsertAndGetDestination(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertDestination(types.BackupDestination{UUID: "uuid-1", Label: "usb", Enabled: true}))

	dest, err := s.GetDestination("uuid-1")
	require.NoError(t, err)
	assert.Equal(t, "usb", dest.Label)

	_, err = s.GetDestination("missing")
	assert.Error(t, err)
}

func TestStore_RemoveHistory(t *testing.T) {
	s := newTestStore(t)
	size := int64(1)
	require.NoError(t, s.MarkCompleted("snapshot-1", "uuid-1", "/path", &size, false, ""))
	require.NoError(t, s.RemoveHistory("snapshot-1", "uuid-1"))

	has, err := s.HasHistory("snapshot-1", "uuid-1")
	require.NoError(t, err)
	assert.False(t, has)
}
