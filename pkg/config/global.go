package config

import (
	"os"

	"github.com/spf13/viper"
)

// GlobalConfig holds the engine-wide settings not specific to any one
// schedule or destination.
type GlobalConfig struct {
	// SnapshotDirUI is the path reported to the UI and stored in metadata
	// (default "/.snapshots").
	SnapshotDirUI string `yaml:"snapshot_dir_ui" mapstructure:"snapshot_dir_ui"`

	// SnapshotDirOnDisk is the path the CoW adapter actually writes
	// subvolumes under (default "/@snapshots"). This documents the
	// asymmetry as a legacy artifact to be preserved, not resolved.
	SnapshotDirOnDisk string `yaml:"snapshot_dir_on_disk" mapstructure:"snapshot_dir_on_disk"`

	// MinFreeBytes is the minimum available space required on the
	// snapshot filesystem before create() will proceed.
	MinFreeBytes int64 `yaml:"min_free_bytes" mapstructure:"min_free_bytes"`

	// MountCheckIntervalSeconds is the mount monitor's default poll
	// interval when not overridden by BackupConfig.
	MountCheckIntervalSeconds int `yaml:"mount_check_interval_seconds" mapstructure:"mount_check_interval_seconds"`
}

func defaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		SnapshotDirUI:             "/.snapshots",
		SnapshotDirOnDisk:         "/@snapshots",
		MinFreeBytes:              1 << 30, // 1 GiB
		MountCheckIntervalSeconds: 30,
	}
}

// LoadGlobalConfig reads path (if present) over built-in defaults using
// viper, so WAYPOINT_-prefixed environment variables can override any
// field without a config file present at all.
func LoadGlobalConfig(path string) (GlobalConfig, error) {
	cfg := defaultGlobalConfig()

	v := viper.New()
	v.SetEnvPrefix("WAYPOINT")
	v.AutomaticEnv()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("snapshot_dir_ui", cfg.SnapshotDirUI)
	v.SetDefault("snapshot_dir_on_disk", cfg.SnapshotDirOnDisk)
	v.SetDefault("min_free_bytes", cfg.MinFreeBytes)
	v.SetDefault("mount_check_interval_seconds", cfg.MountCheckIntervalSeconds)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg back to path as YAML.
func (c GlobalConfig) Save(path string) error {
	return writeYAML(path, c)
}
