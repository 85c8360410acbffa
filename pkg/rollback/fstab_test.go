package rollback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteFstab_RewritesCapturedBtrfsLines(t *testing.T) {
	lines := []string{
		"# root filesystem",
		"UUID=abcd-1234 / btrfs subvol=@realroot,compress=zstd 0 0",
		"UUID=abcd-1234 /home btrfs subvol=@home 0 0",
		"UUID=efgh-5678 /boot/efi vfat defaults 0 2",
		"",
	}
	out := RewriteFstab(lines, "demo", []string{"/"})

	assert.Equal(t, "# root filesystem", out[0])
	assert.Contains(t, out[1], "subvol=@snapshots/demo/root")
	assert.Contains(t, out[1], "compress=zstd")
	assert.NotContains(t, out[1], "@realroot")
	assert.Equal(t, lines[2], out[2], "uncaptured mount point left unchanged")
	assert.Equal(t, lines[3], out[3], "non-btrfs line left unchanged")
	assert.Equal(t, "", out[4])
}

func TestRewriteFstab_HandlesSubvolid(t *testing.T) {
	lines := []string{"UUID=abcd-1234 / btrfs subvolid=256,ro 0 0"}
	out := RewriteFstab(lines, "demo", []string{"/"})
	assert.Contains(t, out[0], "subvol=@snapshots/demo/root")
	assert.NotContains(t, out[0], "subvolid=256")
	assert.Contains(t, out[0], "ro")
}

func TestRewriteFstab_AddsOptionWhenMissing(t *testing.T) {
	lines := []string{"UUID=abcd-1234 / btrfs defaults 0 0"}
	out := RewriteFstab(lines, "demo", []string{"/"})
	assert.Contains(t, out[0], "defaults")
	assert.Contains(t, out[0], "subvol=@snapshots/demo/root")
}
