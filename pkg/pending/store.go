package pending

import (
	"sync"
	"time"

	"github.com/Letdown2491/waypoint/pkg/config"
	"github.com/Letdown2491/waypoint/pkg/types"
	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// Store wraps the persisted BackupConfig (destinations, pending queue,
// history) with an in-process mutex serializing read-modify-write cycles
// against the backing file, the same discipline metadata.Store applies to
// the snapshot record file.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore opens the backup config file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() (config.BackupConfig, error) {
	return config.LoadBackupConfig(s.path)
}

// PendingCount returns the total number of queue entries across every
// destination, regardless of status.
func (s *Store) PendingCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(cfg.Pending), nil
}

// Destinations returns the full destination map.
func (s *Store) Destinations() (map[string]types.BackupDestination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	return cfg.Destinations, nil
}

// GetDestination returns the destination keyed by uuid, or NotFound.
func (s *Store) GetDestination(uuid string) (types.BackupDestination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return types.BackupDestination{}, err
	}
	dest, ok := cfg.Destinations[uuid]
	if !ok {
		return types.BackupDestination{}, waypointerr.New(waypointerr.NotFound, "no destination registered with uuid: "+uuid)
	}
	return dest, nil
}

// UpsertDestination adds or replaces a destination record.
func (s *Store) UpsertDestination(dest types.BackupDestination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return err
	}
	cfg.Destinations[dest.UUID] = dest
	return cfg.Save(s.path)
}

// AddPending adds a (snapshotID, destinationUUID) entry if one is not
// already present for that pair.
func (s *Store) AddPending(snapshotID, destinationUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return err
	}
	for _, p := range cfg.Pending {
		if p.SnapshotID == snapshotID && p.DestinationUUID == destinationUUID {
			return nil
		}
	}
	cfg.Pending = append(cfg.Pending, types.PendingBackup{
		SnapshotID:      snapshotID,
		DestinationUUID: destinationUUID,
		Status:          types.PendingStatusPending,
		QueuedAt:        time.Now().UTC(),
	})
	return cfg.Save(s.path)
}

// PendingForDestination returns entries in status pending for uuid.
func (s *Store) PendingForDestination(uuid string) ([]types.PendingBackup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []types.PendingBackup
	for _, p := range cfg.Pending {
		if p.DestinationUUID == uuid && p.Status == types.PendingStatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

// HasHistory reports whether a completed backup record already exists for
// the pair.
func (s *Store) HasHistory(snapshotID, destinationUUID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return false, err
	}
	for _, h := range cfg.History {
		if h.SnapshotID == snapshotID && h.DestinationUUID == destinationUUID {
			return true, nil
		}
	}
	return false, nil
}

// MarkInProgress transitions a pending entry to in_progress.
func (s *Store) MarkInProgress(snapshotID, destinationUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return err
	}
	for i, p := range cfg.Pending {
		if p.SnapshotID == snapshotID && p.DestinationUUID == destinationUUID {
			cfg.Pending[i].Status = types.PendingStatusInProgress
			now := time.Now().UTC()
			cfg.Pending[i].LastAttempt = now
			return cfg.Save(s.path)
		}
	}
	return waypointerr.New(waypointerr.NotFound, "no pending entry for snapshot/destination pair")
}

// MarkCompleted removes the pending entry and appends a history record.
func (s *Store) MarkCompleted(snapshotID, destinationUUID, backupPath string, size *int64, incremental bool, parentSnapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return err
	}
	out := cfg.Pending[:0]
	for _, p := range cfg.Pending {
		if p.SnapshotID == snapshotID && p.DestinationUUID == destinationUUID {
			continue
		}
		out = append(out, p)
	}
	cfg.Pending = out
	cfg.History = append(cfg.History, types.BackupRecord{
		SnapshotID:       snapshotID,
		DestinationUUID:  destinationUUID,
		BackupPath:       backupPath,
		CompletedAt:      time.Now().UTC(),
		SizeBytes:        size,
		Incremental:      incremental,
		ParentSnapshotID: parentSnapshotID,
	})
	return cfg.Save(s.path)
}

// MarkFailed sets status failed, increments retry count, and records the
// error and attempt time.
func (s *Store) MarkFailed(snapshotID, destinationUUID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return err
	}
	for i, p := range cfg.Pending {
		if p.SnapshotID == snapshotID && p.DestinationUUID == destinationUUID {
			now := time.Now().UTC()
			cfg.Pending[i].Status = types.PendingStatusFailed
			cfg.Pending[i].RetryCount++
			cfg.Pending[i].LastError = errMsg
			cfg.Pending[i].LastAttempt = now
			return cfg.Save(s.path)
		}
	}
	return waypointerr.New(waypointerr.NotFound, "no pending entry for snapshot/destination pair")
}

// Retry sets status back to pending.
func (s *Store) Retry(snapshotID, destinationUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return err
	}
	for i, p := range cfg.Pending {
		if p.SnapshotID == snapshotID && p.DestinationUUID == destinationUUID {
			cfg.Pending[i].Status = types.PendingStatusPending
			return cfg.Save(s.path)
		}
	}
	return waypointerr.New(waypointerr.NotFound, "no pending entry for snapshot/destination pair")
}

// LatestBackup returns the history record with the greatest CompletedAt for
// uuid, or NotFound if there is none.
func (s *Store) LatestBackup(uuid string) (types.BackupRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return types.BackupRecord{}, err
	}
	var latest types.BackupRecord
	found := false
	for _, h := range cfg.History {
		if h.DestinationUUID != uuid {
			continue
		}
		if !found || h.CompletedAt.After(latest.CompletedAt) {
			latest = h
			found = true
		}
	}
	if !found {
		return types.BackupRecord{}, waypointerr.New(waypointerr.NotFound, "no completed backup for destination: "+uuid)
	}
	return latest, nil
}

// HistoryForDestination returns every history record for uuid.
func (s *Store) HistoryForDestination(uuid string) ([]types.BackupRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []types.BackupRecord
	for _, h := range cfg.History {
		if h.DestinationUUID == uuid {
			out = append(out, h)
		}
	}
	return out, nil
}

// RemoveHistory deletes the history record for the pair, used by
// destination retention once the backup directory itself has been removed.
func (s *Store) RemoveHistory(snapshotID, destinationUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return err
	}
	out := cfg.History[:0]
	for _, h := range cfg.History {
		if h.SnapshotID == snapshotID && h.DestinationUUID == destinationUUID {
			continue
		}
		out = append(out, h)
	}
	cfg.History = out
	return cfg.Save(s.path)
}

// MountCheckInterval returns the configured mount-check interval.
func (s *Store) MountCheckInterval() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.load()
	if err != nil {
		return 0, err
	}
	return time.Duration(cfg.MountCheckInterval) * time.Second, nil
}
