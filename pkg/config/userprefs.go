package config

import "github.com/Letdown2491/waypoint/pkg/types"

// UserPreferencesConfig is the per-user file keyed by snapshot id. An
// absent entry equals types.UserPreference's zero value.
type UserPreferencesConfig struct {
	Preferences map[string]types.UserPreference `yaml:"preferences"`
}

// LoadUserPreferences reads path, returning an empty map (not an error)
// when the file does not yet exist.
func LoadUserPreferences(path string) (UserPreferencesConfig, error) {
	cfg := UserPreferencesConfig{Preferences: map[string]types.UserPreference{}}
	if err := readYAML(path, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Preferences == nil {
		cfg.Preferences = map[string]types.UserPreference{}
	}
	return cfg, nil
}

// Get returns the preference for snapshotID, or the zero value if absent.
func (c UserPreferencesConfig) Get(snapshotID string) types.UserPreference {
	return c.Preferences[snapshotID]
}

// Set records pref for snapshotID.
func (c UserPreferencesConfig) Set(snapshotID string, pref types.UserPreference) {
	c.Preferences[snapshotID] = pref
}

// Save writes cfg back to path.
func (c UserPreferencesConfig) Save(path string) error {
	return writeYAML(path, c)
}
