package auth

// Action identifiers passed to the policy agent. Read-only operations
// (list, scan, status, verify, sizes) never reach Check at all.
const (
	ActionCreate       = "create"
	ActionDelete       = "delete"
	ActionRestore      = "restore"
	ActionRestoreFiles = "restore-files"
	ActionCleanup      = "cleanup"
	ActionConfigure    = "configure"
	ActionScheduler    = "scheduler"
	ActionQuota        = "quota"
	ActionBackup       = "backup"
	ActionPreview      = "preview"
	ActionCompare      = "compare"
)
