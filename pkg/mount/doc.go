// Package mount tracks which backup destinations are currently mounted,
// polling at an interval and reporting newly-mounted and newly-unmounted
// destinations so the pending-backup coordinator can react.
package mount
