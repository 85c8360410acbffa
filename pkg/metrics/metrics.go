package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SnapshotsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "waypoint_snapshots_total",
			Help: "Total number of snapshots known to the engine",
		},
	)

	SnapshotCreateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "waypoint_snapshot_create_duration_seconds",
			Help:    "Time taken to capture a snapshot in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotCreateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_snapshot_create_total",
			Help: "Total snapshot create attempts by result",
		},
		[]string{"result"},
	)

	SnapshotDeleteTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_snapshot_delete_total",
			Help: "Total snapshot delete attempts by result",
		},
		[]string{"result"},
	)

	RollbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_rollback_total",
			Help: "Total rollback attempts by result",
		},
		[]string{"result"},
	)

	BackupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "waypoint_backup_duration_seconds",
			Help:    "Time taken to replicate a snapshot to a destination in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	BackupBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "waypoint_backup_bytes_total",
			Help: "Total bytes replicated to backup destinations",
		},
	)

	BackupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_backup_total",
			Help: "Total backup attempts by result",
		},
		[]string{"result"},
	)

	PendingBackupsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "waypoint_pending_backups",
			Help: "Current size of the pending-backup queue across all destinations",
		},
	)

	DestinationsDiscovered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "waypoint_destinations_discovered",
			Help: "Number of mounted destinations found on the most recent scan",
		},
	)

	SchedulerCycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waypoint_scheduler_cycle_duration_seconds",
			Help:    "Time taken for one scheduled capture-and-cleanup cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	SchedulerCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_scheduler_cycles_total",
			Help: "Total scheduled capture cycles by kind and result",
		},
		[]string{"kind", "result"},
	)

	RetentionCleanupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "waypoint_retention_cleanup_duration_seconds",
			Help:    "Time taken for a retention cleanup pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	RetentionDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "waypoint_retention_deleted_total",
			Help: "Total snapshots removed by retention policies",
		},
	)

	AuthorizationDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_authorization_denied_total",
			Help: "Total authorization denials by action",
		},
		[]string{"action"},
	)

	IPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_ipc_requests_total",
			Help: "Total IPC method calls by method and result",
		},
		[]string{"method", "result"},
	)

	IPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waypoint_ipc_request_duration_seconds",
			Help:    "IPC method call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(SnapshotsTotal)
	prometheus.MustRegister(SnapshotCreateDuration)
	prometheus.MustRegister(SnapshotCreateTotal)
	prometheus.MustRegister(SnapshotDeleteTotal)
	prometheus.MustRegister(RollbackTotal)
	prometheus.MustRegister(BackupDuration)
	prometheus.MustRegister(BackupBytesTotal)
	prometheus.MustRegister(BackupTotal)
	prometheus.MustRegister(PendingBackupsGauge)
	prometheus.MustRegister(DestinationsDiscovered)
	prometheus.MustRegister(SchedulerCycleDuration)
	prometheus.MustRegister(SchedulerCyclesTotal)
	prometheus.MustRegister(RetentionCleanupDuration)
	prometheus.MustRegister(RetentionDeletedTotal)
	prometheus.MustRegister(AuthorizationDeniedTotal)
	prometheus.MustRegister(IPCRequestsTotal)
	prometheus.MustRegister(IPCRequestDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
