/*
Package log provides structured logging for waypoint using zerolog.

The log package wraps zerolog to give every component JSON-structured (or
console, for interactive use) logging with a shared global instance,
configurable level, and small helpers for attaching the fields this
project's call sites care about: component, snapshot_id, destination_uuid,
schedule_prefix.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("scheduler")
	logger.Info().Str("schedule_prefix", "daily").Msg("worker starting")

Package-level Info/Debug/Warn/Error/Errorf/Fatal are shorthands over the
global Logger for call sites that don't need a dedicated child logger.
*/
package log
