// Package cowfs is the sole component permitted to issue CoW-filesystem
// control operations. Every other component that needs to create, delete,
// inspect, or replicate a subvolume goes through Adapter.
package cowfs

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// SubvolumeInfo is the parsed result of `btrfs subvolume show`.
type SubvolumeInfo struct {
	ID         int64
	UUID       string
	ParentUUID string
}

// QuotaUsageInfo reports current quota consumption.
type QuotaUsageInfo struct {
	UsedBytes  int64
	LimitBytes int64
}

// Adapter wraps the btrfs CLI.
type Adapter struct {
	runner Runner
}

// NewAdapter builds an Adapter using the real subprocess Runner.
func NewAdapter() *Adapter {
	return &Adapter{runner: ExecRunner{}}
}

// NewAdapterWithRunner builds an Adapter over a caller-supplied Runner, for
// tests.
func NewAdapterWithRunner(r Runner) *Adapter {
	return &Adapter{runner: r}
}

// CreateROSnapshot creates a read-only snapshot of source at dest. It
// creates dest's parent directory if needed and fails atomically if dest
// already exists.
func (a *Adapter) CreateROSnapshot(ctx context.Context, source, dest string) error {
	return a.createSnapshot(ctx, source, dest, true)
}

// CreateRWSnapshot creates a writable snapshot of source at dest.
func (a *Adapter) CreateRWSnapshot(ctx context.Context, source, dest string) error {
	return a.createSnapshot(ctx, source, dest, false)
}

// CreateSubvolume creates a new, empty writable subvolume at dest (not a
// snapshot of anything), used when restoring a non-CoW backup into a fresh
// subvolume.
func (a *Adapter) CreateSubvolume(ctx context.Context, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return waypointerr.New(waypointerr.PreconditionFailed, fmt.Sprintf("destination %s already exists", dest))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create parent directory", err)
	}
	if _, err := a.runner.Run(ctx, "btrfs", "subvolume", "create", dest); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs subvolume create", err)
	}
	return nil
}

func (a *Adapter) createSnapshot(ctx context.Context, source, dest string, readOnly bool) error {
	if _, err := os.Stat(dest); err == nil {
		return waypointerr.New(waypointerr.PreconditionFailed, fmt.Sprintf("destination %s already exists", dest))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create parent directory", err)
	}
	args := []string{"subvolume", "snapshot"}
	if readOnly {
		args = append(args, "-r")
	}
	args = append(args, source, dest)
	if _, err := a.runner.Run(ctx, "btrfs", args...); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs subvolume snapshot", err)
	}
	return nil
}

// DeleteSubvolume removes the subvolume at path.
func (a *Adapter) DeleteSubvolume(ctx context.Context, path string) error {
	if _, err := a.runner.Run(ctx, "btrfs", "subvolume", "delete", path); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs subvolume delete", err)
	}
	return nil
}

// SubvolumeShow returns the id, UUID and parent UUID of the subvolume at
// path, parsed from `btrfs subvolume show` key/value output.
func (a *Adapter) SubvolumeShow(ctx context.Context, path string) (SubvolumeInfo, error) {
	out, err := a.runner.Run(ctx, "btrfs", "subvolume", "show", path)
	if err != nil {
		return SubvolumeInfo{}, waypointerr.Wrap(waypointerr.NotFound, "btrfs subvolume show", err)
	}
	return parseSubvolumeShow(out)
}

func parseSubvolumeShow(out []byte) (SubvolumeInfo, error) {
	var info SubvolumeInfo
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(strings.ToLower(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		switch key {
		case "subvolume id":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				info.ID = v
			}
		case "uuid":
			info.UUID = value
		case "parent uuid":
			if value != "-" {
				info.ParentUUID = value
			}
		}
	}
	if info.UUID == "" {
		return info, waypointerr.New(waypointerr.IntegrityFailed, "subvolume show: missing uuid field")
	}
	return info, nil
}

// SetDefault sets subvolumeID as the default subvolume for the filesystem
// containing mountPoint.
func (a *Adapter) SetDefault(ctx context.Context, subvolumeID int64, mountPoint string) error {
	if _, err := a.runner.Run(ctx, "btrfs", "subvolume", "set-default", strconv.FormatInt(subvolumeID, 10), mountPoint); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs subvolume set-default", err)
	}
	return nil
}

// GetDefault returns the default subvolume id for mountPoint.
func (a *Adapter) GetDefault(ctx context.Context, mountPoint string) (int64, error) {
	out, err := a.runner.Run(ctx, "btrfs", "subvolume", "get-default", mountPoint)
	if err != nil {
		return 0, waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs subvolume get-default", err)
	}
	// Typical output: "ID 256 gen 56 top level 5 path @snapshots/demo/root"
	fields := strings.Fields(string(out))
	for i, f := range fields {
		if f == "ID" && i+1 < len(fields) {
			id, err := strconv.ParseInt(fields[i+1], 10, 64)
			if err != nil {
				return 0, waypointerr.Wrap(waypointerr.ExternalFailure, "parse subvolume get-default", err)
			}
			return id, nil
		}
	}
	return 0, waypointerr.New(waypointerr.ExternalFailure, "unexpected get-default output")
}

// SendReceive runs `btrfs send` on source (with an optional -p parent) piped
// directly into `btrfs receive` at destDir, per the distinct-attribution
// rule: if send fails its status and stderr are reported; if
// receive fails its stderr is reported; both are reported when both fail.
func (a *Adapter) SendReceive(ctx context.Context, source string, parent string, destDir string) error {
	sendArgs := []string{"send"}
	if parent != "" {
		sendArgs = append(sendArgs, "-p", parent)
	}
	sendArgs = append(sendArgs, source)
	recvArgs := []string{"receive", destDir}

	_, errSend, errRecv := a.runner.RunPiped(ctx, "btrfs", sendArgs, "btrfs", recvArgs)
	switch {
	case errSend != nil && errRecv != nil:
		return waypointerr.Wrap(waypointerr.ExternalFailure, fmt.Sprintf("send and receive both failed (send: %v)", errSend), errRecv)
	case errSend != nil:
		return waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs send failed", errSend)
	case errRecv != nil:
		return waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs receive failed", errRecv)
	}
	return nil
}

// EnableQuota turns on quota accounting of the given kind for the snapshot
// subvolume root.
func (a *Adapter) EnableQuota(ctx context.Context, root string, kind string) error {
	args := []string{"quota", "enable"}
	if kind == "simple" {
		args = append(args, "--simple")
	}
	args = append(args, root)
	if _, err := a.runner.Run(ctx, "btrfs", args...); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs quota enable", err)
	}
	return nil
}

// DisableQuota turns off quota accounting.
func (a *Adapter) DisableQuota(ctx context.Context, root string) error {
	if _, err := a.runner.Run(ctx, "btrfs", "quota", "disable", root); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs quota disable", err)
	}
	return nil
}

// SetQuotaLimit sets the qgroup limit for the snapshot subvolume root.
func (a *Adapter) SetQuotaLimit(ctx context.Context, root string, bytes int64) error {
	limit := strconv.FormatInt(bytes, 10)
	if _, err := a.runner.Run(ctx, "btrfs", "qgroup", "limit", limit, root); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs qgroup limit", err)
	}
	return nil
}

// QuotaUsage reports current usage for the snapshot subvolume root's qgroup.
func (a *Adapter) QuotaUsage(ctx context.Context, root string) (QuotaUsageInfo, error) {
	out, err := a.runner.Run(ctx, "btrfs", "qgroup", "show", "-r", "--raw", root)
	if err != nil {
		return QuotaUsageInfo{}, waypointerr.Wrap(waypointerr.ExternalFailure, "btrfs qgroup show", err)
	}
	return parseQgroupShow(out)
}

func parseQgroupShow(out []byte) (QuotaUsageInfo, error) {
	lines := strings.Split(string(out), "\n")
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 4 || !strings.HasPrefix(fields[0], "0/") {
			continue
		}
		used, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		var limit int64
		if fields[3] != "none" {
			limit, _ = strconv.ParseInt(fields[3], 10, 64)
		}
		return QuotaUsageInfo{UsedBytes: used, LimitBytes: limit}, nil
	}
	return QuotaUsageInfo{}, waypointerr.New(waypointerr.ExternalFailure, "no qgroup 0/ entry found")
}
