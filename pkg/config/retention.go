package config

import "github.com/Letdown2491/waypoint/pkg/types"

// RetentionConfig holds the global (admin-wide) retention policy. Per-
// schedule timeline policies live on types.Schedule itself and are not
// separately persisted.
type RetentionConfig struct {
	Global types.GlobalRetentionPolicy `yaml:"global"`
}

func defaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Global: types.GlobalRetentionPolicy{
			MaxSnapshots: 0,
			MaxAgeDays:   0,
			MinSnapshots: 1,
			KeepPatterns: nil,
		},
	}
}

// LoadRetentionConfig reads path, falling back to defaults when absent.
func LoadRetentionConfig(path string) (RetentionConfig, error) {
	cfg := defaultRetentionConfig()
	if err := readYAML(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg back to path.
func (c RetentionConfig) Save(path string) error {
	return writeYAML(path, c)
}
