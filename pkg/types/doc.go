/*
Package types defines the core data structures shared across waypoint's
privileged engine: snapshots, schedules, the pending-backup queue, backup
destinations and records, retention policies, exclude patterns, quota
configuration, and per-user preferences.

# Architecture

types is the foundation every other package builds on:

  - Snapshot lifecycle data (Snapshot, SubvolumeCapture, Package)
  - Scheduling (Schedule, ScheduleKind)
  - Backup/replication (BackupDestination, BackupRecord, PendingBackup,
    BackupProgress, VerifyResult, DiscoveredDestination)
  - Retention (TimelineRetentionPolicy, GlobalRetentionPolicy)
  - Host policy (ExcludePattern, QuotaConfig, UserPreference)

All types are plain value structs serialized to YAML or JSON by the
packages that own their persistence (pkg/config, pkg/metadata); this
package carries no I/O of its own.
*/
package types
