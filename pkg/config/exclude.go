package config

import "github.com/Letdown2491/waypoint/pkg/types"

// ExcludeConfig is the persisted exclude-pattern list, merged with the
// built-in system defaults at load time.
type ExcludeConfig struct {
	Patterns []types.ExcludePattern `yaml:"patterns"`
}

// defaultExcludePatterns lists the swap/ephemeral/virtual paths any
// root-snapshot tool excludes by default; the distilled spec names the
// Exclude pattern entity but not its defaults, so these are filled in from
// common practice for a CoW root-snapshot tool.
func defaultExcludePatterns() []types.ExcludePattern {
	defaults := []struct {
		pattern string
		kind    types.ExcludeMatchKind
		desc    string
	}{
		{"/proc", types.ExcludeMatchPrefix, "kernel process information"},
		{"/sys", types.ExcludeMatchPrefix, "kernel/device tree"},
		{"/dev", types.ExcludeMatchPrefix, "device nodes"},
		{"/run", types.ExcludeMatchPrefix, "runtime state"},
		{"/tmp", types.ExcludeMatchPrefix, "temporary files"},
		{"/var/tmp", types.ExcludeMatchPrefix, "temporary files"},
		{"/var/cache", types.ExcludeMatchPrefix, "regenerable cache data"},
		{"/var/lib/docker", types.ExcludeMatchPrefix, "container storage, snapshotted separately if needed"},
		{"/var/lib/lxc", types.ExcludeMatchPrefix, "container storage"},
		{"/var/lib/machines", types.ExcludeMatchPrefix, "systemd-nspawn storage"},
		{"*.swap", types.ExcludeMatchGlob, "swapfiles"},
		{"lost+found", types.ExcludeMatchExact, "filesystem recovery directory"},
	}
	out := make([]types.ExcludePattern, 0, len(defaults))
	for _, d := range defaults {
		out = append(out, types.ExcludePattern{
			Pattern:       d.pattern,
			Kind:          d.kind,
			Description:   d.desc,
			Enabled:       true,
			SystemDefault: true,
		})
	}
	return out
}

// LoadExcludeConfig reads path and merges its patterns with the built-in
// defaults: a stored entry marked SystemDefault overrides the Enabled flag
// of the default with the same pattern string (the default is never removed
// from the returned set), and stored entries not so marked are appended
// after the defaults as user patterns.
func LoadExcludeConfig(path string) (ExcludeConfig, error) {
	var stored ExcludeConfig
	if err := readYAML(path, &stored); err != nil {
		return ExcludeConfig{}, err
	}

	overrides := make(map[string]bool, len(stored.Patterns))
	var userPatterns []types.ExcludePattern
	for _, p := range stored.Patterns {
		if p.SystemDefault {
			overrides[p.Pattern] = p.Enabled
			continue
		}
		userPatterns = append(userPatterns, p)
	}

	merged := defaultExcludePatterns()
	for i := range merged {
		if enabled, ok := overrides[merged[i].Pattern]; ok {
			merged[i].Enabled = enabled
		}
	}
	merged = append(merged, userPatterns...)

	return ExcludeConfig{Patterns: merged}, nil
}

// Save writes cfg back to path.
func (c ExcludeConfig) Save(path string) error {
	return writeYAML(path, c)
}
