package config

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// readYAML loads path into v via viper-style semantics: a missing file is
// not an error (v is left untouched, so callers should pre-populate it with
// defaults), any other read/parse error is wrapped as ExternalFailure.
func readYAML(path string, v any) error {
	fl := flock.New(path + ".lock")
	if err := fl.RLock(); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "lock config file", err)
	}
	defer fl.Unlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "read config file "+path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "parse config file "+path, err)
	}
	return nil
}

// SaveRaw writes pre-serialized content to path under the same lock and
// atomic-rename discipline as the typed Save methods, for IPC callers (e.g.
// SaveSchedulesConfig, SaveQuotaConfig) that already hold marshaled text
// from the UI rather than a typed Go value.
func SaveRaw(path string, content []byte) error {
	return writeRaw(path, content)
}

// writeRaw writes pre-serialized content to path under the same lock and
// atomic-rename discipline as writeYAML, for callers (SaveSchedulesConfig
// over IPC) that already hold marshaled text rather than a Go value.
func writeRaw(path string, content []byte) error {
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "lock config file", err)
	}
	defer fl.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create config directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create temp config file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "write temp config file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "close temp config file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "rename temp config file", err)
	}
	return nil
}

// writeYAML marshals v to YAML and writes it to path under an exclusive
// lock, via a temp-file-then-rename for atomic visibility.
func writeYAML(path string, v any) error {
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "lock config file", err)
	}
	defer fl.Unlock()

	data, err := yaml.Marshal(v)
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "marshal config", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create config directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "create temp config file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "write temp config file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "close temp config file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return waypointerr.Wrap(waypointerr.ExternalFailure, "rename temp config file", err)
	}
	return nil
}
