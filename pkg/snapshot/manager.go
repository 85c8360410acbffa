package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Letdown2491/waypoint/pkg/cache"
	"github.com/Letdown2491/waypoint/pkg/cowfs"
	"github.com/Letdown2491/waypoint/pkg/events"
	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/metadata"
	"github.com/Letdown2491/waypoint/pkg/metrics"
	"github.com/Letdown2491/waypoint/pkg/packages"
	"github.com/Letdown2491/waypoint/pkg/types"
	"github.com/Letdown2491/waypoint/pkg/validate"
	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// Manager implements create/delete/list/get/sizes over the configured
// snapshot directory.
type Manager struct {
	adapter     *cowfs.Adapter
	store       *metadata.Store
	sizes       *cache.TTLCache[int64]
	collector   packages.Collector
	broker      *events.Broker
	snapshotDir string // e.g. "/@snapshots", the on-disk layout root
	checkPath   string // filesystem-kind/space probe target, normally "/"
	minFreeBytes int64

	isCoWFilesystem func(string) (bool, error)
	availableBytes  func(string) (int64, error)
}

// Option configures an optional Manager dependency.
type Option func(*Manager)

// WithCollector overrides the default no-op installed-package collector.
func WithCollector(c packages.Collector) Option {
	return func(m *Manager) { m.collector = c }
}

// WithBroker wires an events.Broker so Create/Delete publish notifications.
func WithBroker(b *events.Broker) Option {
	return func(m *Manager) { m.broker = b }
}

// WithCheckPath overrides the path probed for filesystem kind and free
// space (defaults to "/"), primarily for tests.
func WithCheckPath(path string) Option {
	return func(m *Manager) { m.checkPath = path }
}

// WithFilesystemProbe overrides the filesystem-kind and free-space probes,
// so tests can simulate a CoW-backed mount without a real one.
func WithFilesystemProbe(isCoW func(string) (bool, error), availBytes func(string) (int64, error)) Option {
	return func(m *Manager) {
		m.isCoWFilesystem = isCoW
		m.availableBytes = availBytes
	}
}

// NewManager builds a Manager rooted at snapshotDir, enforcing minFreeBytes
// before every capture.
func NewManager(adapter *cowfs.Adapter, store *metadata.Store, snapshotDir string, minFreeBytes int64, opts ...Option) *Manager {
	m := &Manager{
		adapter:      adapter,
		store:        store,
		sizes:        cache.Sizes(),
		collector:    packages.NoopCollector{},
		snapshotDir:     snapshotDir,
		checkPath:       "/",
		minFreeBytes:    minFreeBytes,
		isCoWFilesystem: cowfs.IsCoWFilesystem,
		availableBytes:  cowfs.AvailableBytes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create captures a read-only snapshot of each subvolume (default [/])
// under a new directory named name, and records its metadata on success.
func (m *Manager) Create(ctx context.Context, name, description string, createdBy types.SnapshotCreatedBy, subvolumes []string) (types.Snapshot, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SnapshotCreateDuration)

	snap, err := m.create(ctx, name, description, createdBy, subvolumes)
	if err != nil {
		metrics.SnapshotCreateTotal.WithLabelValues("failure").Inc()
		return snap, err
	}
	metrics.SnapshotCreateTotal.WithLabelValues("success").Inc()
	metrics.SnapshotsTotal.Inc()
	return snap, nil
}

func (m *Manager) create(ctx context.Context, name, description string, createdBy types.SnapshotCreatedBy, subvolumes []string) (types.Snapshot, error) {
	if !validate.SnapshotName(name) {
		return types.Snapshot{}, waypointerr.New(waypointerr.PreconditionFailed, "invalid snapshot name: "+name)
	}

	isCow, err := m.isCoWFilesystem(m.checkPath)
	if err != nil {
		return types.Snapshot{}, waypointerr.Wrap(waypointerr.ExternalFailure, "probe filesystem kind", err)
	}
	if !isCow {
		return types.Snapshot{}, waypointerr.New(waypointerr.PreconditionFailed, m.checkPath+" is not on the CoW filesystem")
	}

	avail, err := m.availableBytes(m.checkPath)
	if err != nil {
		return types.Snapshot{}, waypointerr.Wrap(waypointerr.ExternalFailure, "probe available space", err)
	}
	if avail < m.minFreeBytes {
		return types.Snapshot{}, waypointerr.New(waypointerr.PreconditionFailed, fmt.Sprintf("insufficient space: %d bytes available, %d required", avail, m.minFreeBytes))
	}

	if len(subvolumes) == 0 {
		subvolumes = []string{"/"}
	}

	captureDir := filepath.Join(m.snapshotDir, name)
	captured := make([]types.SubvolumeCapture, 0, len(subvolumes))

	for _, mountPoint := range subvolumes {
		dirName := cowfs.DeriveSubvolumeName(mountPoint)
		localPath := filepath.Join(captureDir, dirName)
		if err := m.adapter.CreateROSnapshot(ctx, mountPoint, localPath); err != nil {
			m.rollbackPartialCapture(ctx, captureDir, captured)
			return types.Snapshot{}, waypointerr.Wrap(waypointerr.ExternalFailure, "create read-only snapshot of "+mountPoint, err)
		}
		captured = append(captured, types.SubvolumeCapture{
			MountPoint: mountPoint,
			DirName:    dirName,
			LocalPath:  localPath,
		})
	}

	kernelVersion, err := cowfs.KernelVersion()
	if err != nil {
		log.WithComponent("snapshot").Warn().Err(err).Msg("failed to read kernel version")
	}

	installed, err := m.collector.Installed()
	if err != nil {
		log.WithComponent("snapshot").Warn().Err(err).Msg("package collector failed")
	}

	snap := types.Snapshot{
		ID:            uuid.New().String(),
		Name:          name,
		CreatedAt:     time.Now().UTC(),
		Path:          captureDir,
		Description:   description,
		KernelVersion: kernelVersion,
		Subvolumes:    captured,
		Packages:      installed,
	}

	if err := m.store.Put(snap); err != nil {
		m.rollbackPartialCapture(ctx, captureDir, captured)
		return types.Snapshot{}, waypointerr.Wrap(waypointerr.ExternalFailure, "record snapshot metadata", err)
	}

	if m.broker != nil {
		m.broker.Publish(&events.Event{
			Type:         events.EventSnapshotCreated,
			SnapshotName: name,
			CreatedBy:    createdBy,
			Message:      "snapshot " + name + " created",
		})
	}

	return snap, nil
}

// rollbackPartialCapture deletes every subvolume already captured for a
// failed Create call and removes the parent directory, best effort.
func (m *Manager) rollbackPartialCapture(ctx context.Context, captureDir string, captured []types.SubvolumeCapture) {
	for _, c := range captured {
		if err := m.adapter.DeleteSubvolume(ctx, c.LocalPath); err != nil {
			log.WithComponent("snapshot").Warn().Err(err).Str("path", c.LocalPath).Msg("failed to clean up partial capture")
		}
	}
	if err := os.Remove(captureDir); err != nil && !os.IsNotExist(err) {
		log.WithComponent("snapshot").Warn().Err(err).Str("dir", captureDir).Msg("failed to remove partial capture directory")
	}
}

// Delete removes every subvolume under the snapshot's directory (detecting
// legacy single-subvolume layout versus the multi-subvolume directory
// layout), then the parent directory and the metadata record.
func (m *Manager) Delete(ctx context.Context, name string) error {
	err := m.delete(ctx, name)
	if err != nil {
		metrics.SnapshotDeleteTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.SnapshotDeleteTotal.WithLabelValues("success").Inc()
	metrics.SnapshotsTotal.Dec()
	return nil
}

func (m *Manager) delete(ctx context.Context, name string) error {
	snap, err := m.store.Get(name)
	if err != nil {
		return err
	}

	isSubvol := func(path string) bool {
		_, err := m.adapter.SubvolumeShow(ctx, path)
		return err == nil
	}

	if isSubvol(snap.Path) {
		// Legacy layout: the leaf itself is the subvolume.
		if err := m.adapter.DeleteSubvolume(ctx, snap.Path); err != nil {
			return waypointerr.Wrap(waypointerr.ExternalFailure, "delete legacy-layout subvolume", err)
		}
	} else {
		for _, c := range snap.Subvolumes {
			if err := m.adapter.DeleteSubvolume(ctx, c.LocalPath); err != nil {
				log.WithComponent("snapshot").Warn().Err(err).Str("path", c.LocalPath).Msg("failed to delete subvolume, continuing")
			}
		}
		if err := os.Remove(snap.Path); err != nil && !os.IsNotExist(err) {
			log.WithComponent("snapshot").Warn().Err(err).Str("dir", snap.Path).Msg("failed to remove snapshot parent directory")
		}
	}

	m.sizes.Remove(name)

	if err := m.store.Delete(name); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "remove snapshot metadata", err)
	}

	if m.broker != nil {
		m.broker.Publish(&events.Event{Type: events.EventSnapshotDeleted, SnapshotName: name, Message: "snapshot " + name + " deleted"})
	}
	return nil
}

// List returns every known snapshot (metadata.Store already dedupes and
// prunes missing paths).
func (m *Manager) List() ([]types.Snapshot, error) {
	return m.store.List()
}

// Get returns the named snapshot, or a NotFound error.
func (m *Manager) Get(name string) (types.Snapshot, error) {
	return m.store.Get(name)
}

// Verify checks that name's metadata record resolves to on-disk content:
// every captured subvolume's local path still exists, and, for a CoW
// destination, is still a valid subvolume rather than a plain directory
// left behind by a partial delete.
func (m *Manager) Verify(ctx context.Context, name string) types.VerifyResult {
	snap, err := m.store.Get(name)
	if err != nil {
		return types.VerifyResult{Success: false, Message: "snapshot not found", Details: []string{err.Error()}}
	}

	if _, err := m.adapter.SubvolumeShow(ctx, snap.Path); err == nil {
		return types.VerifyResult{Success: true, Message: "snapshot verified", Details: []string{"legacy layout is a valid subvolume"}}
	}

	var details []string
	for _, c := range snap.Subvolumes {
		if _, err := m.adapter.SubvolumeShow(ctx, c.LocalPath); err != nil {
			return types.VerifyResult{
				Success: false,
				Message: "subvolume " + c.DirName + " is missing or not a valid subvolume",
				Details: append(details, err.Error()),
			}
		}
		details = append(details, c.DirName+" is a valid subvolume")
	}
	return types.VerifyResult{Success: true, Message: "snapshot verified", Details: details}
}

// Sizes computes the recursive apparent size of each named snapshot in
// parallel, memoized in the 5-minute size cache.
func (m *Manager) Sizes(names []string) (map[string]int64, error) {
	result := make(map[string]int64, len(names))
	var mu sync.Mutex
	var wg sync.WaitGroup
	errs := make(chan error, len(names))

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			size, err := m.sizeOf(name)
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			result[name] = size
			mu.Unlock()
		}(name)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		return nil, err
	}
	return result, nil
}

func (m *Manager) sizeOf(name string) (int64, error) {
	if size, ok := m.sizes.Get(name); ok {
		return size, nil
	}
	snap, err := m.store.Get(name)
	if err != nil {
		return 0, err
	}
	size, err := dirSize(snap.Path)
	if err != nil {
		return 0, waypointerr.Wrap(waypointerr.ExternalFailure, "compute snapshot size", err)
	}
	m.sizes.Insert(name, size)
	return size, nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
