/*
Package config persists waypoint's typed configuration records as
human-editable text files: global config, schedule list, retention policy,
exclude patterns, quota config, backup config, and per-user preferences
.

The global config is read through spf13/viper; the other records are read
with gopkg.in/yaml.v3 under a shared github.com/gofrs/flock lock. Either way
a missing file yields built-in defaults. Writes marshal with
gopkg.in/yaml.v3 and go through an exclusive flock lock followed by a
rename-from-temporary.
*/
package config
