package ipc

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/Letdown2491/waypoint/pkg/audit"
	"github.com/Letdown2491/waypoint/pkg/cowfs"
	"github.com/Letdown2491/waypoint/pkg/events"
	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/metrics"
	"github.com/Letdown2491/waypoint/pkg/rollback"
	"github.com/Letdown2491/waypoint/pkg/scheduler"
	"github.com/Letdown2491/waypoint/pkg/types"
	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// ServiceName and ObjectPath identify the helper on the system bus.
const (
	ServiceName   = "io.github.waypoint.Helper1"
	ObjectPath    = dbus.ObjectPath("/io/github/waypoint/Helper")
	interfaceName = "io.github.waypoint.Helper1"
)

// SnapshotManager is the subset of *snapshot.Manager the service drives.
type SnapshotManager interface {
	Create(ctx context.Context, name, description string, createdBy types.SnapshotCreatedBy, subvolumes []string) (types.Snapshot, error)
	Delete(ctx context.Context, name string) error
	List() ([]types.Snapshot, error)
	Sizes(names []string) (map[string]int64, error)
	Verify(ctx context.Context, name string) types.VerifyResult
}

// RollbackEngine is the subset of *rollback.Engine the service drives.
type RollbackEngine interface {
	Restore(ctx context.Context, name string) error
	Preview(ctx context.Context, name string) (rollback.PreviewResult, error)
	RestoreFiles(ctx context.Context, snapshotName string, paths []string, targetDir string, overwrite bool) (rollback.RestoreFilesResult, error)
	Compare(ctx context.Context, oldName, newName string) (rollback.CompareResult, error)
}

// BackupEngine is the subset of *backup.Engine the service drives.
type BackupEngine interface {
	Backup(ctx context.Context, snapshotPath, destinationMount, parentSnapshotPath string, sink events.ProgressSink) (string, int64, error)
	ListBackups(ctx context.Context, destinationMount string) ([]string, error)
	RestoreFromBackup(ctx context.Context, backupPath, snapshotsDir, configuredSnapshotDir string) error
	VerifyBackup(ctx context.Context, snapshotPath, destinationMount, snapshotID string) types.VerifyResult
}

// DestinationScanner is the subset of *backup.Scanner the service drives.
type DestinationScanner interface {
	ScanDestinations() ([]types.DiscoveredDestination, error)
}

// SchedulerControl is the subset of *scheduler.Scheduler the service drives.
type SchedulerControl interface {
	Start()
	Stop()
	Restart(schedules []types.Schedule)
	Status() (running bool, schedules []scheduler.ScheduleStatus)
}

// QuotaAdapter is the subset of *cowfs.Adapter the service drives for the
// quota method group.
type QuotaAdapter interface {
	EnableQuota(ctx context.Context, root string, kind string) error
	DisableQuota(ctx context.Context, root string) error
	SetQuotaLimit(ctx context.Context, root string, bytes int64) error
	QuotaUsage(ctx context.Context, root string) (cowfs.QuotaUsageInfo, error)
}

// PendingQueuer is the subset of *pending.Coordinator the service drives
// to enqueue automatic destination backups right after a manual capture
// succeeds. Optional: a nil Pending leaves CreateSnapshot's behavior
// unchanged for deployments with no backup destinations configured.
type PendingQueuer interface {
	QueueSnapshotBackup(snap types.Snapshot, isFavorite bool) error
}

// Checker gates a state-changing action behind the host's policy agent.
type Checker interface {
	Check(ctx context.Context, sender string, action string) error
}

// PIDResolver maps a D-Bus sender to its process id, independent of the
// authorization decision, so read-only calls can still be audited when
// they fail.
type PIDResolver interface {
	ResolvePID(ctx context.Context, sender string) (uint32, error)
}

// Auditor is the subset of *audit.Emitter the service drives.
type Auditor interface {
	Emit(r audit.Record)
}

// Paths bundles the on-disk locations the service reads and writes outside
// the snapshot/backup metadata stores already owned by its collaborators.
type Paths struct {
	SchedulesConfig  string
	RetentionConfig  string
	QuotaConfig      string
	SnapshotsDirUI   string
	SnapshotsDirDisk string
	QuotaRoot        string
}

// Service implements the privileged helper's method table over its
// collaborators, gating every state-changing call behind Checker and
// recording every state-changing call's outcome through Auditor.
type Service struct {
	snapshots  SnapshotManager
	rollback   RollbackEngine
	backupEng  BackupEngine
	scanner    DestinationScanner
	sched      SchedulerControl
	quota      QuotaAdapter
	checker    Checker
	resolver   PIDResolver
	auditor    Auditor
	pending    PendingQueuer
	paths      Paths
	logger     zerolog.Logger
	conn       *dbus.Conn
	signalPath dbus.ObjectPath
}

// Deps bundles Service's collaborators for NewService.
type Deps struct {
	Snapshots SnapshotManager
	Rollback  RollbackEngine
	Backup    BackupEngine
	Scanner   DestinationScanner
	Scheduler SchedulerControl
	Quota     QuotaAdapter
	Checker   Checker
	Resolver  PIDResolver
	Auditor   Auditor
	Pending   PendingQueuer
	Paths     Paths
}

// NewService builds a Service from its collaborators.
func NewService(d Deps) *Service {
	return &Service{
		snapshots:  d.Snapshots,
		rollback:   d.Rollback,
		backupEng:  d.Backup,
		scanner:    d.Scanner,
		sched:      d.Scheduler,
		quota:      d.Quota,
		checker:    d.Checker,
		resolver:   d.Resolver,
		auditor:    d.Auditor,
		pending:    d.Pending,
		paths:      d.Paths,
		logger:     log.WithComponent("ipc"),
		signalPath: ObjectPath,
	}
}

// Export claims ServiceName on conn and registers the method table at
// ObjectPath under interfaceName. conn is retained so SnapshotCreated can be
// emitted later.
func (s *Service) Export(conn *dbus.Conn) error {
	s.conn = conn
	if err := conn.Export(s, ObjectPath, interfaceName); err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "export method table", err)
	}
	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "request bus name", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return waypointerr.New(waypointerr.ResourceBusy, ServiceName+" is already owned on this bus")
	}
	return nil
}

// emitSnapshotCreated fires the SnapshotCreated(name, created_by) signal,
// best effort: a disconnected or absent bus does not fail the caller whose
// create already succeeded.
func (s *Service) emitSnapshotCreated(name string, createdBy types.SnapshotCreatedBy) {
	if s.conn == nil {
		return
	}
	if err := s.conn.Emit(s.signalPath, interfaceName+".SnapshotCreated", name, string(createdBy)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to emit SnapshotCreated signal")
	}
}

// audit resolves sender to a pid and best-effort user identity, classifies
// err as success/failure/denied, and emits one audit record.
func (s *Service) audit(ctx context.Context, sender dbus.Sender, operation, resource string, err error) {
	pid, resolveErr := s.resolver.ResolvePID(ctx, string(sender))
	if resolveErr != nil {
		s.logger.Warn().Err(resolveErr).Msg("failed to resolve caller pid for audit record")
	}
	userID, userName := audit.ResolveUser(pid)

	result := audit.ResultSuccess
	details := ""
	if err != nil {
		details = err.Error()
		if waypointerr.KindOf(err) == waypointerr.AuthorizationDenied {
			result = audit.ResultDenied
		} else {
			result = audit.ResultFailure
		}
	}

	s.auditor.Emit(audit.Record{
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		UserName:  userName,
		ProcessID: pid,
		Operation: operation,
		Resource:  resource,
		Result:    result,
		Details:   details,
	})
}

// gated runs fn behind an authorization check for action, auditing every
// outcome (denied, failed, or succeeded), and records IPC request metrics.
// It implements the "collapse any error down to (false, message)" rule for
// every state-changing method in the table.
func (s *Service) gated(ctx context.Context, sender dbus.Sender, method, action, resource string, fn func() (string, error)) (bool, string) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.IPCRequestDuration, method)

	if err := s.checker.Check(ctx, string(sender), action); err != nil {
		s.audit(ctx, sender, action, resource, err)
		metrics.IPCRequestsTotal.WithLabelValues(method, "denied").Inc()
		return false, err.Error()
	}

	msg, err := fn()
	if err != nil {
		s.audit(ctx, sender, action, resource, err)
		metrics.IPCRequestsTotal.WithLabelValues(method, "failure").Inc()
		return false, err.Error()
	}

	s.audit(ctx, sender, action, resource, nil)
	metrics.IPCRequestsTotal.WithLabelValues(method, "success").Inc()
	return true, msg
}

// readOnly times and counts a read-only call (list, scan, status, verify,
// sizes) without the authorization or audit steps the read-only carve-out
// exempts them from.
func (s *Service) readOnly(method string, fn func() (string, error)) string {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.IPCRequestDuration, method)

	out, err := fn()
	if err != nil {
		metrics.IPCRequestsTotal.WithLabelValues(method, "failure").Inc()
		return errorJSON(err)
	}
	metrics.IPCRequestsTotal.WithLabelValues(method, "success").Inc()
	return out
}
