package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/types"
)

type fakeMounts struct {
	entries []mountEntry
}

func (f fakeMounts) Mounts() ([]mountEntry, error) {
	return f.entries, nil
}

func TestScanner_ScanDestinations_ExcludesSystemMounts(t *testing.T) {
	mounts := fakeMounts{entries: []mountEntry{
		{Device: "/dev/sda1", MountPoint: "/", FSType: "btrfs"},
		{Device: "/dev/sda2", MountPoint: "/home", FSType: "btrfs"},
		{Device: "/dev/sdb1", MountPoint: "/mnt/backup1", FSType: "btrfs"},
		{Device: "server:/export", MountPoint: "/mnt/nfsshare", FSType: "nfs"},
		{Device: "/dev/sdc1", MountPoint: "/mnt/backup1/waypoint-backups/demo", FSType: "btrfs"},
		{Device: "tmpfs", MountPoint: "/tmp", FSType: "tmpfs"},
	}}
	scanner := NewScanner(mounts, "/.snapshots")

	destinations, err := scanner.ScanDestinations()
	require.NoError(t, err)

	var labels []string
	for _, d := range destinations {
		labels = append(labels, d.MountPoint)
	}
	assert.Contains(t, labels, "/mnt/backup1")
	assert.Contains(t, labels, "/mnt/nfsshare")
	assert.NotContains(t, labels, "/")
	assert.NotContains(t, labels, "/home")
	assert.NotContains(t, labels, "/mnt/backup1/waypoint-backups/demo")
}

func TestScanner_ScanDestinations_ClassifiesNetwork(t *testing.T) {
	mounts := fakeMounts{entries: []mountEntry{
		{Device: "server:/export", MountPoint: "/mnt/nfsshare", FSType: "nfs"},
		{Device: "/dev/sdb1", MountPoint: "/mnt/backup1", FSType: "btrfs"},
	}}
	scanner := NewScanner(mounts, "/.snapshots")

	destinations, err := scanner.ScanDestinations()
	require.NoError(t, err)

	byMount := make(map[string]types.DiscoveredDestination)
	for _, d := range destinations {
		byMount[d.MountPoint] = d
	}
	assert.Equal(t, types.DriveTypeNetwork, byMount["/mnt/nfsshare"].DriveType)
}

func TestScanner_ScanDestinations_ExcludesSnapshotLabeled(t *testing.T) {
	mounts := fakeMounts{entries: []mountEntry{
		{Device: "/dev/sdb1", MountPoint: "/mnt/snapshot-stale", FSType: "btrfs"},
	}}
	scanner := NewScanner(mounts, "/.snapshots")

	destinations, err := scanner.ScanDestinations()
	require.NoError(t, err)
	assert.Empty(t, destinations)
}

func TestScanner_ScanDestinations_DedupesByUUID(t *testing.T) {
	mounts := fakeMounts{entries: []mountEntry{
		{Device: "/dev/sdb1", MountPoint: "/mnt/backup1", FSType: "btrfs"},
		{Device: "/dev/sdb1", MountPoint: "/mnt/backup1-bind", FSType: "btrfs"},
	}}
	scanner := NewScanner(mounts, "/.snapshots")

	destinations, err := scanner.ScanDestinations()
	require.NoError(t, err)
	assert.Len(t, destinations, 1)
}

func TestScanner_ValidateDestination(t *testing.T) {
	mounts := fakeMounts{entries: []mountEntry{
		{Device: "/dev/sdb1", MountPoint: "/mnt/backup1", FSType: "btrfs"},
	}}
	scanner := NewScanner(mounts, "/.snapshots")

	d, err := scanner.ValidateDestination("/mnt/backup1")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/backup1", d.MountPoint)

	_, err = scanner.ValidateDestination("/etc")
	assert.Error(t, err)
}

func TestScanner_ValidateBackupPath(t *testing.T) {
	mounts := fakeMounts{entries: []mountEntry{
		{Device: "/dev/sdb1", MountPoint: "/mnt/backup1", FSType: "btrfs"},
	}}
	scanner := NewScanner(mounts, "/.snapshots")

	_, err := scanner.ValidateBackupPath("/mnt/backup1/waypoint-backups/demo")
	assert.NoError(t, err)

	_, err = scanner.ValidateBackupPath("/mnt/backup1/other/demo")
	assert.Error(t, err)
}
