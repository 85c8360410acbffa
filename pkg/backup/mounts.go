package backup

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// mountEntry is one parsed /proc/mounts line.
type mountEntry struct {
	Device     string
	MountPoint string
	FSType     string
}

// MountSource lists the currently mounted filesystems. The production
// implementation reads /proc/mounts; tests substitute a fixed list.
type MountSource interface {
	Mounts() ([]mountEntry, error)
}

// ProcMounts reads /proc/mounts, the conventional Linux mount table.
type ProcMounts struct{}

func (ProcMounts) Mounts() ([]mountEntry, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []mountEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		entries = append(entries, mountEntry{
			Device:     fields[0],
			MountPoint: unescapeOctal(fields[1]),
			FSType:     fields[2],
		})
	}
	return entries, scanner.Err()
}

// unescapeOctal reverses the \NNN octal escaping /proc/mounts applies to
// spaces, tabs, and backslashes in mount point paths.
func unescapeOctal(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			if v, err := strconv.ParseInt(s[i+1:i+4], 8, 32); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// isRemovable reports whether device's underlying block device is marked
// removable by the kernel, per /sys/block/<base>/removable.
func isRemovable(device string) bool {
	base := strings.TrimPrefix(device, "/dev/")
	base = strings.TrimRightFunc(base, func(r rune) bool { return r >= '0' && r <= '9' })
	data, err := os.ReadFile("/sys/block/" + base + "/removable")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}
