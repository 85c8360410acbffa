package backup

import (
	"path/filepath"
	"strings"

	"github.com/Letdown2491/waypoint/pkg/metrics"
	"github.com/Letdown2491/waypoint/pkg/types"
	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// cowFilesystemKind names the fstype value scan_destinations recognizes as
// this engine's own CoW filesystem.
const cowFilesystemKind = "btrfs"

var eligibleFilesystems = map[string]bool{
	cowFilesystemKind: true,
	"ntfs":            true,
	"ntfs3":           true,
	"exfat":           true,
	"vfat":            true,
	"cifs":            true,
	"nfs":             true,
	"nfs4":            true,
}

var networkFilesystems = map[string]bool{
	"cifs": true,
	"nfs":  true,
	"nfs4": true,
	"smb3": true,
}

var excludedMountPrefixes = []string{"/home", "/boot", "/swap", "/var", "/tmp", "/sys", "/proc", "/dev"}

// Scanner enumerates and validates backup destinations.
type Scanner struct {
	mounts      MountSource
	snapshotDir string
}

// NewScanner builds a Scanner. snapshotDir is excluded from discovery
// results, same as the hard-coded system mount points.
func NewScanner(mounts MountSource, snapshotDir string) *Scanner {
	return &Scanner{mounts: mounts, snapshotDir: snapshotDir}
}

// ScanDestinations enumerates mounted filesystems eligible as backup
// targets: the CoW filesystem, NTFS, exFAT, VFAT, CIFS, or NFS, excluding
// system mount points, the engine's own auto-mounted replicas under
// waypoint-backups/, and entries labeled snapshot-*. Results are
// deduplicated by UUID.
func (s *Scanner) ScanDestinations() ([]types.DiscoveredDestination, error) {
	entries, err := s.mounts.Mounts()
	if err != nil {
		return nil, waypointerr.Wrap(waypointerr.ExternalFailure, "enumerate mounts", err)
	}

	seen := make(map[string]bool)
	var out []types.DiscoveredDestination
	for _, e := range entries {
		if !eligibleFilesystems[e.FSType] {
			continue
		}
		if s.isExcludedMountPoint(e.MountPoint) {
			continue
		}
		if strings.Contains(e.MountPoint, "/waypoint-backups/") {
			continue
		}
		label := filepath.Base(e.MountPoint)
		if strings.HasPrefix(label, "snapshot-") {
			continue
		}

		uuid := subvolumeUUIDOrDevice(e.Device)
		if seen[uuid] {
			continue
		}
		seen[uuid] = true

		out = append(out, types.DiscoveredDestination{
			Label:          label,
			MountPoint:     e.MountPoint,
			DriveType:      classifyDrive(e),
			UUID:           uuid,
			FilesystemKind: e.FSType,
		})
	}
	metrics.DestinationsDiscovered.Set(float64(len(out)))
	return out, nil
}

func (s *Scanner) isExcludedMountPoint(mountPoint string) bool {
	if mountPoint == "/" || mountPoint == s.snapshotDir {
		return true
	}
	for _, prefix := range excludedMountPrefixes {
		if mountPoint == prefix || strings.HasPrefix(mountPoint, prefix+"/") {
			return true
		}
	}
	return false
}

func classifyDrive(e mountEntry) types.DriveType {
	if networkFilesystems[e.FSType] || strings.Contains(e.Device, ":") {
		return types.DriveTypeNetwork
	}
	if isRemovable(e.Device) {
		return types.DriveTypeRemovable
	}
	return types.DriveTypeInternal
}

// subvolumeUUIDOrDevice is the dedup key for a discovered mount: the real
// implementation would resolve a persistent filesystem UUID via blkid;
// lacking that here, the device path exactly as read from the mount table
// stands in as the per-filesystem key.
func subvolumeUUIDOrDevice(device string) string {
	return device
}

// ValidateDestination canonicalizes path, scans destinations, and accepts
// only if the canonical path equals the canonical mount point of one
// returned destination. This is the sole authority for what counts as a
// legal backup target.
func (s *Scanner) ValidateDestination(path string) (types.DiscoveredDestination, error) {
	canon, err := filepath.Abs(path)
	if err != nil {
		return types.DiscoveredDestination{}, waypointerr.Wrap(waypointerr.PreconditionFailed, "canonicalize destination path", err)
	}
	canon = filepath.Clean(canon)

	destinations, err := s.ScanDestinations()
	if err != nil {
		return types.DiscoveredDestination{}, err
	}
	for _, d := range destinations {
		if filepath.Clean(d.MountPoint) == canon {
			return d, nil
		}
	}
	return types.DiscoveredDestination{}, waypointerr.New(waypointerr.PreconditionFailed, "untrusted destination: "+path)
}

// ValidateBackupPath canonicalizes path and requires that it lies under
// <destination>/waypoint-backups/ for some validated destination.
func (s *Scanner) ValidateBackupPath(path string) (types.DiscoveredDestination, error) {
	canon, err := filepath.Abs(path)
	if err != nil {
		return types.DiscoveredDestination{}, waypointerr.Wrap(waypointerr.PreconditionFailed, "canonicalize backup path", err)
	}
	canon = filepath.Clean(canon)

	destinations, err := s.ScanDestinations()
	if err != nil {
		return types.DiscoveredDestination{}, err
	}
	for _, d := range destinations {
		prefix := filepath.Clean(filepath.Join(d.MountPoint, "waypoint-backups")) + string(filepath.Separator)
		if strings.HasPrefix(canon+string(filepath.Separator), prefix) {
			return d, nil
		}
	}
	return types.DiscoveredDestination{}, waypointerr.New(waypointerr.PreconditionFailed, "backup path not under a validated destination: "+path)
}
