package rollback

import (
	"strings"

	"github.com/Letdown2491/waypoint/pkg/cowfs"
)

// RewriteFstab rewrites every line whose filesystem type is the CoW
// filesystem and whose mount point is in captured: the subvol= (or
// subvolid=) option is replaced with a reference to this rollback's
// snapshot directory. Other lines, comments, and blank lines pass through
// unchanged; surrounding whitespace is preserved where the original line's
// layout allows it.
func RewriteFstab(lines []string, snapshotName string, captured []string) []string {
	dirByMount := make(map[string]string, len(captured))
	for _, mountPoint := range captured {
		dirByMount[mountPoint] = cowfs.DeriveSubvolumeName(mountPoint)
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = rewriteFstabLine(line, snapshotName, dirByMount)
	}
	return out
}

func rewriteFstabLine(line, snapshotName string, dirByMount map[string]string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return line
	}

	fields := strings.Fields(line)
	if len(fields) < 4 {
		return line
	}
	mountPoint, fsType, oldOptions := fields[1], fields[2], fields[3]

	dirName, captured := dirByMount[mountPoint]
	if fsType != "btrfs" || !captured {
		return line
	}

	newOption := "subvol=@snapshots/" + snapshotName + "/" + dirName
	newOptions := replaceSubvolOption(oldOptions, newOption)

	idx := strings.Index(line, oldOptions)
	if idx < 0 {
		return line
	}
	return line[:idx] + newOptions + line[idx+len(oldOptions):]
}

func replaceSubvolOption(options, replacement string) string {
	parts := strings.Split(options, ",")
	replaced := false
	for i, p := range parts {
		if strings.HasPrefix(p, "subvol=") || strings.HasPrefix(p, "subvolid=") {
			parts[i] = replacement
			replaced = true
		}
	}
	if !replaced {
		parts = append(parts, replacement)
	}
	return strings.Join(parts, ",")
}
