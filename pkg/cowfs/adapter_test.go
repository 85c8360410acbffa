package cowfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out     []byte
	err     error
	lastCmd string
	lastArgs []string

	pipedOut  []byte
	pipedErr1 error
	pipedErr2 error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.lastCmd = name
	f.lastArgs = args
	return f.out, f.err
}

func (f *fakeRunner) RunPiped(ctx context.Context, name1 string, args1 []string, name2 string, args2 []string) ([]byte, error, error) {
	return f.pipedOut, f.pipedErr1, f.pipedErr2
}

func TestSubvolumeShow(t *testing.T) {
	out := []byte(`ID 257 gen 10 top level 5 path @snapshots/demo/root
	Name: 			root
	UUID: 			abcd-1234
	Parent UUID: 		-
	Creation time:		2026-01-01 00:00:00 +0000
`)
	a := NewAdapterWithRunner(&fakeRunner{out: out})
	info, err := a.SubvolumeShow(context.Background(), "/dummy")
	require.NoError(t, err)
	assert.Equal(t, "abcd-1234", info.UUID)
	assert.Empty(t, info.ParentUUID)
}

func TestSubvolumeShow_MissingUUID(t *testing.T) {
	a := NewAdapterWithRunner(&fakeRunner{out: []byte("Name: root\n")})
	_, err := a.SubvolumeShow(context.Background(), "/dummy")
	assert.Error(t, err)
}

func TestSendReceive_BothFail(t *testing.T) {
	r := &fakeRunner{
		pipedErr1: &CommandError{Cmd: "btrfs", Stderr: "send boom"},
		pipedErr2: &CommandError{Cmd: "btrfs", Stderr: "receive boom"},
	}
	a := NewAdapterWithRunner(r)
	err := a.SendReceive(context.Background(), "/src", "", "/dst")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "send and receive both failed")
}

func TestSendReceive_SendFailsOnly(t *testing.T) {
	r := &fakeRunner{pipedErr1: &CommandError{Cmd: "btrfs", Stderr: "send boom"}}
	a := NewAdapterWithRunner(r)
	err := a.SendReceive(context.Background(), "/src", "", "/dst")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "btrfs send failed")
}

func TestSendReceive_Success(t *testing.T) {
	a := NewAdapterWithRunner(&fakeRunner{})
	err := a.SendReceive(context.Background(), "/src", "/parent", "/dst")
	assert.NoError(t, err)
}

func TestParseQgroupShow(t *testing.T) {
	out := []byte(`qgroupid         rfer         excl     max_rfer
--------         ----         ----     --------
0/257          1048576      1048576        2097152
`)
	info, err := parseQgroupShow(out)
	require.NoError(t, err)
	assert.Equal(t, int64(1048576), info.UsedBytes)
	assert.Equal(t, int64(2097152), info.LimitBytes)
}
