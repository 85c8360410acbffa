package cowfs

import "golang.org/x/sys/unix"

// btrfsSuperMagic is BTRFS_SUPER_MAGIC from linux/magic.h, returned by
// statfs(2) in Statfs_t.Type for any btrfs mount.
const btrfsSuperMagic = 0x9123683e

// IsCoWFilesystem reports whether path is mounted on the CoW filesystem
// this adapter drives.
func IsCoWFilesystem(path string) (bool, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return false, err
	}
	return int64(stat.Type) == btrfsSuperMagic, nil
}

// AvailableBytes returns the space available to an unprivileged caller on
// the filesystem containing path.
func AvailableBytes(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
