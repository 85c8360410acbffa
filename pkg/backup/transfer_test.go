package backup

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/cowfs"
)

func TestTransferFor_SelectsByDestinationKind(t *testing.T) {
	adapter := cowfs.NewAdapterWithRunner(fakeSubvolRunner{shown: map[string]bool{}})

	_, isCow := TransferFor(adapter, cowFilesystemKind).(cowTransfer)
	assert.True(t, isCow)

	_, isMirror := TransferFor(adapter, "exfat").(mirrorTransfer)
	assert.True(t, isMirror)
}

func TestMirrorTransfer_SkipsMissingSource(t *testing.T) {
	var m mirrorTransfer
	err := m.Transfer(context.Background(), filepath.Join(t.TempDir(), "nowhere"), t.TempDir(), "root", "")
	require.Error(t, err)
}

func TestMirrorTransfer_CreatesNamedSubdirectoryUnderDest(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "marker.txt"), []byte("x"), 0o644))
	dest := t.TempDir()

	if _, err := exec.LookPath("rsync"); err != nil {
		t.Skip("rsync not available")
	}

	var m mirrorTransfer
	require.NoError(t, m.Transfer(context.Background(), source, dest, "home", ""))

	_, err := os.Stat(filepath.Join(dest, "home", "marker.txt"))
	assert.NoError(t, err)
}
