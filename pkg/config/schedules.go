package config

import "github.com/Letdown2491/waypoint/pkg/types"

// SchedulesConfig is the persisted `[[schedule]]` list.
type SchedulesConfig struct {
	Schedules []types.Schedule `yaml:"schedule"`
}

// LoadSchedules reads the schedule list at path, or an empty list if the
// file does not yet exist.
func LoadSchedules(path string) (SchedulesConfig, error) {
	var cfg SchedulesConfig
	if err := readYAML(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the schedule list back to path.
func (c SchedulesConfig) Save(path string) error {
	return writeYAML(path, c)
}

// SaveSchedulesRaw writes pre-serialized content verbatim, for the
// SaveSchedulesConfig IPC method which receives already-formatted text from
// the UI rather than a typed value.
func SaveSchedulesRaw(path string, content []byte) error {
	return SaveRaw(path, content)
}
