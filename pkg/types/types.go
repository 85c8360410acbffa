package types

import "time"

// Snapshot represents a point-in-time, read-only capture of one or more
// mounted subvolumes, grouped under a single name.
type Snapshot struct {
	ID          string
	Name        string
	CreatedAt   time.Time
	Path        string
	Description string
	KernelVersion string
	Subvolumes  []SubvolumeCapture
	Packages    []Package
	SizeBytes   *int64
}

// SubvolumeCapture records one captured mount point within a Snapshot.
type SubvolumeCapture struct {
	MountPoint string // absolute mount point as seen on the live system
	DirName    string // derived directory name (see DeriveSubvolumeName)
	LocalPath  string // absolute path of the subvolume under the snapshot directory
}

// Package is an installed {name, version} pair recorded at capture time.
type Package struct {
	Name    string
	Version string
}

// ScheduleKind enumerates the cooperative-worker cadences the scheduler
// supports.
type ScheduleKind string

const (
	ScheduleHourly  ScheduleKind = "hourly"
	ScheduleDaily   ScheduleKind = "daily"
	ScheduleWeekly  ScheduleKind = "weekly"
	ScheduleMonthly ScheduleKind = "monthly"
)

// Schedule is one configured capture cadence.
type Schedule struct {
	Kind        ScheduleKind
	Enabled     bool
	TimeOfDay   string // "HH:MM", required for daily/weekly/monthly
	DayOfWeek   *int   // 0-6, Sunday=0, required for weekly
	DayOfMonth  *int   // 1-31, required for monthly
	Prefix      string
	Description string
	KeepCount   int
	KeepDays    int
	Subvolumes  []string // overrides the default [/] capture list when non-empty
}

// PendingStatus is the lifecycle state of a PendingBackup.
type PendingStatus string

const (
	PendingStatusPending    PendingStatus = "pending"
	PendingStatusInProgress PendingStatus = "in_progress"
	PendingStatusCompleted  PendingStatus = "completed"
	PendingStatusFailed     PendingStatus = "failed"
)

// PendingBackup tracks one (snapshot, destination) pair awaiting transfer.
type PendingBackup struct {
	SnapshotID      string
	DestinationUUID string
	Status          PendingStatus
	QueuedAt        time.Time
	RetryCount      int
	LastError       string
	LastAttempt     time.Time
}

// BackupRecord documents one completed replica.
type BackupRecord struct {
	SnapshotID      string
	DestinationUUID string
	BackupPath      string
	CompletedAt     time.Time
	SizeBytes       *int64
	Incremental     bool
	ParentSnapshotID string
}

// DestinationFilter controls which snapshots a destination accepts.
type DestinationFilter string

const (
	DestinationFilterAll       DestinationFilter = "all"
	DestinationFilterFavorites DestinationFilter = "favorites"
)

// BackupDestination is a user-managed external backup target, keyed by its
// persistent filesystem UUID.
type BackupDestination struct {
	UUID               string
	Label              string
	LastSeenMountPoint string
	FilesystemKind     string
	Enabled            bool
	Filter             DestinationFilter
	OnSnapshotCreation bool
	OnDriveMount       bool
	RetentionDays      *int
}

// TimelineRetentionPolicy caps how many snapshots are kept in each calendar
// bucket. A zero limit disables that bucket.
type TimelineRetentionPolicy struct {
	Hourly  int
	Daily   int
	Weekly  int
	Monthly int
	Yearly  int
}

// GlobalRetentionPolicy is the admin-wide cap applied independently of any
// schedule's timeline policy.
type GlobalRetentionPolicy struct {
	MaxSnapshots int
	MaxAgeDays   int
	MinSnapshots int
	KeepPatterns []string
}

// ExcludeMatchKind is how an ExcludePattern is compared against a path.
type ExcludeMatchKind string

const (
	ExcludeMatchExact  ExcludeMatchKind = "exact"
	ExcludeMatchPrefix ExcludeMatchKind = "prefix"
	ExcludeMatchGlob   ExcludeMatchKind = "glob"
)

// ExcludePattern is one rule governing which paths are left out of a
// snapshot or backup.
type ExcludePattern struct {
	Pattern       string
	Kind          ExcludeMatchKind
	Description   string
	Enabled       bool
	SystemDefault bool
}

// QuotaKind selects the CoW filesystem's quota accounting mode.
type QuotaKind string

const (
	QuotaKindSimple      QuotaKind = "simple"
	QuotaKindTraditional QuotaKind = "traditional"
)

// QuotaConfig governs space accounting on the snapshot subvolume root.
type QuotaConfig struct {
	Enabled            bool
	Kind               QuotaKind
	TotalLimitBytes    *int64
	PerSnapshotLimit   *int64
	CleanupThreshold   float64
	AutoCleanup        bool
}

// UserPreference is a per-user, per-snapshot annotation.
type UserPreference struct {
	IsFavorite bool
	Note       string
}

// DriveType classifies how a backup destination is attached.
type DriveType string

const (
	DriveTypeNetwork   DriveType = "network"
	DriveTypeRemovable DriveType = "removable"
	DriveTypeInternal  DriveType = "internal"
)

// DiscoveredDestination is the transient result of a filesystem scan, before
// it is matched against (or promoted to) a BackupDestination.
type DiscoveredDestination struct {
	Label          string
	MountPoint     string
	DriveType      DriveType
	UUID           string
	FilesystemKind string
}

// BackupProgressStage marks a phase of an in-flight replication.
type BackupProgressStage string

const (
	BackupStagePreparing    BackupProgressStage = "preparing"
	BackupStageTransferring BackupProgressStage = "transferring"
	BackupStageComplete     BackupProgressStage = "complete"
)

// BackupProgress is one update emitted on the bounded progress channel
// during a call to the backup engine.
type BackupProgress struct {
	Stage        BackupProgressStage
	SnapshotName string
	BytesDone    int64
}

// VerifyResult is the structured outcome of a backup verification pass.
type VerifyResult struct {
	Success bool
	Message string
	Details []string
}

// SnapshotCreatedBy distinguishes manual captures from scheduled ones, for
// the SnapshotCreated signal.
type SnapshotCreatedBy string

const (
	CreatedByManual    SnapshotCreatedBy = "manual"
	CreatedByScheduler SnapshotCreatedBy = "scheduler"
)

