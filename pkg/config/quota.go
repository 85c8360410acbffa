package config

import "github.com/Letdown2491/waypoint/pkg/types"

// QuotaFileConfig is the persisted quota config.
type QuotaFileConfig struct {
	Quota types.QuotaConfig `yaml:"quota"`
}

func defaultQuotaConfig() QuotaFileConfig {
	return QuotaFileConfig{
		Quota: types.QuotaConfig{
			Enabled:          false,
			Kind:             types.QuotaKindSimple,
			CleanupThreshold: 0.9,
			AutoCleanup:      false,
		},
	}
}

// LoadQuotaConfig reads path, falling back to defaults when absent.
func LoadQuotaConfig(path string) (QuotaFileConfig, error) {
	cfg := defaultQuotaConfig()
	if err := readYAML(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg back to path.
func (c QuotaFileConfig) Save(path string) error {
	return writeYAML(path, c)
}
