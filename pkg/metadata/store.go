// Package metadata owns the single durable record of every snapshot known
// to the engine.
package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/types"
	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// Store persists Snapshot records to a single pretty-printed JSON file,
// guarded by a file lock and written via rename-from-temporary for atomic
// visibility.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore opens (without yet reading) the metadata file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns all records. Before returning, it deduplicates by id
// (keeping the last occurrence) and prunes records whose on-disk path is
// absent; if either cleanup changed the set, the store is rewritten.
func (s *Store) List() ([]types.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	deduped, changedDedup := dedupeByID(snapshots)
	pruned, changedPrune := prunePaths(deduped)

	if changedDedup || changedPrune {
		if err := s.writeLocked(pruned); err != nil {
			return nil, err
		}
	}
	return pruned, nil
}

// Count returns the number of records left after List's dedupe and prune,
// satisfying metrics.SnapshotSource.
func (s *Store) Count() (int, error) {
	snaps, err := s.List()
	if err != nil {
		return 0, err
	}
	return len(snaps), nil
}

// Get returns the snapshot named name, or a NotFound error.
func (s *Store) Get(name string) (types.Snapshot, error) {
	snaps, err := s.List()
	if err != nil {
		return types.Snapshot{}, err
	}
	for _, snap := range snaps {
		if snap.Name == name {
			return snap, nil
		}
	}
	return types.Snapshot{}, waypointerr.New(waypointerr.NotFound, "snapshot not found: "+name)
}

// GetByPath returns the snapshot whose on-disk capture directory is path,
// or a NotFound error. Used by the backup engine, which identifies its
// source by filesystem path rather than name.
func (s *Store) GetByPath(path string) (types.Snapshot, error) {
	snaps, err := s.List()
	if err != nil {
		return types.Snapshot{}, err
	}
	for _, snap := range snaps {
		if snap.Path == path {
			return snap, nil
		}
	}
	return types.Snapshot{}, waypointerr.New(waypointerr.NotFound, "no snapshot recorded at path: "+path)
}

// GetByID returns the snapshot with the given id, or a NotFound error. Used
// by the pending-backup coordinator, which tracks queue entries by snapshot
// id rather than name.
func (s *Store) GetByID(id string) (types.Snapshot, error) {
	snaps, err := s.List()
	if err != nil {
		return types.Snapshot{}, err
	}
	for _, snap := range snaps {
		if snap.ID == id {
			return snap, nil
		}
	}
	return types.Snapshot{}, waypointerr.New(waypointerr.NotFound, "snapshot not found: "+id)
}

// Put appends or replaces (by id) a snapshot record.
func (s *Store) Put(snap types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps, err := s.readLocked()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range snaps {
		if existing.ID == snap.ID {
			snaps[i] = snap
			replaced = true
			break
		}
	}
	if !replaced {
		snaps = append(snaps, snap)
	}
	return s.writeLocked(snaps)
}

// Delete removes the record with the given name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps, err := s.readLocked()
	if err != nil {
		return err
	}
	out := snaps[:0]
	for _, snap := range snaps {
		if snap.Name != name {
			out = append(out, snap)
		}
	}
	return s.writeLocked(out)
}

func (s *Store) readLocked() ([]types.Snapshot, error) {
	fl := flock.New(s.path + ".lock")
	if err := fl.RLock(); err != nil {
		return nil, waypointerr.Wrap(waypointerr.ExternalFailure, "lock metadata file", err)
	}
	defer fl.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, waypointerr.Wrap(waypointerr.ExternalFailure, "read metadata file", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var snaps []types.Snapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, waypointerr.Wrap(waypointerr.ExternalFailure, "parse metadata file", err)
	}
	return snaps, nil
}

func (s *Store) writeLocked(snaps []types.Snapshot) error {
	fl := flock.New(s.path + ".lock")
	if err := fl.Lock(); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "lock metadata file", err)
	}
	defer fl.Unlock()

	data, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "marshal metadata", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create metadata directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".metadata-*.tmp")
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create temp metadata file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "write temp metadata file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "close temp metadata file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "rename temp metadata file", err)
	}
	return nil
}

func dedupeByID(snaps []types.Snapshot) ([]types.Snapshot, bool) {
	seen := make(map[string]int, len(snaps))
	out := make([]types.Snapshot, 0, len(snaps))
	changed := false
	for _, snap := range snaps {
		if idx, ok := seen[snap.ID]; ok {
			out[idx] = snap
			changed = true
			continue
		}
		seen[snap.ID] = len(out)
		out = append(out, snap)
	}
	return out, changed
}

func prunePaths(snaps []types.Snapshot) ([]types.Snapshot, bool) {
	out := make([]types.Snapshot, 0, len(snaps))
	changed := false
	for _, snap := range snaps {
		if _, err := os.Stat(snap.Path); err != nil {
			changed = true
			log.WithComponent("metadata").Warn().Str("snapshot_id", snap.ID).Str("path", snap.Path).Msg("pruning snapshot record with missing directory")
			continue
		}
		out = append(out, snap)
	}
	return out, changed
}
