package config

import "github.com/Letdown2491/waypoint/pkg/types"

// BackupConfig is the persisted record of backup destinations, the
// pending-backup queue, completed-backup history, and the mount-check
// interval. Destinations are keyed by filesystem UUID.
type BackupConfig struct {
	Destinations       map[string]types.BackupDestination `yaml:"destinations"`
	Pending            []types.PendingBackup              `yaml:"pending"`
	History            []types.BackupRecord               `yaml:"history"`
	MountCheckInterval int                                 `yaml:"mount_check_interval_seconds"`
}

func defaultBackupConfig() BackupConfig {
	return BackupConfig{
		Destinations:       map[string]types.BackupDestination{},
		MountCheckInterval: 30,
	}
}

// LoadBackupConfig reads path, falling back to defaults when absent.
func LoadBackupConfig(path string) (BackupConfig, error) {
	cfg := defaultBackupConfig()
	if err := readYAML(path, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Destinations == nil {
		cfg.Destinations = map[string]types.BackupDestination{}
	}
	if cfg.MountCheckInterval <= 0 {
		cfg.MountCheckInterval = 30
	}
	return cfg, nil
}

// Save writes cfg back to path.
func (c BackupConfig) Save(path string) error {
	return writeYAML(path, c)
}
