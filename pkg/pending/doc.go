// Package pending owns the per-destination pending-backup queue and
// completed-backup history, and the coordinator logic that matches
// snapshots against destination filters and drives the backup engine from
// mount and snapshot-creation events.
package pending
