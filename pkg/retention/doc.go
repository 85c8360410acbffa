// Package retention implements the two independent cleanup policies: a
// per-schedule calendar-bucket timeline, and an admin-wide count/age cap.
// Both are pure functions over value types, with no I/O, so callers
// (pkg/scheduler, pkg/ipc) own deciding when to apply
// them and what to do with the resulting delete set.
package retention
