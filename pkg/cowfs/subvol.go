package cowfs

import "strings"

// DeriveSubvolumeName maps a mount point to its safe, single-segment
// directory name: "/" becomes "root"; otherwise the leading "/" is
// stripped and remaining "/" separators become "_" (e.g. "/var/lib"
// becomes "var_lib").
func DeriveSubvolumeName(mountPoint string) string {
	if mountPoint == "/" {
		return "root"
	}
	trimmed := strings.TrimPrefix(mountPoint, "/")
	return strings.ReplaceAll(trimmed, "/", "_")
}
