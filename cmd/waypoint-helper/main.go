package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/Letdown2491/waypoint/pkg/audit"
	"github.com/Letdown2491/waypoint/pkg/auth"
	"github.com/Letdown2491/waypoint/pkg/backup"
	"github.com/Letdown2491/waypoint/pkg/config"
	"github.com/Letdown2491/waypoint/pkg/cowfs"
	"github.com/Letdown2491/waypoint/pkg/events"
	"github.com/Letdown2491/waypoint/pkg/ipc"
	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/metadata"
	"github.com/Letdown2491/waypoint/pkg/metrics"
	"github.com/Letdown2491/waypoint/pkg/mount"
	"github.com/Letdown2491/waypoint/pkg/pending"
	"github.com/Letdown2491/waypoint/pkg/rollback"
	"github.com/Letdown2491/waypoint/pkg/scheduler"
	"github.com/Letdown2491/waypoint/pkg/snapshot"
	"github.com/Letdown2491/waypoint/pkg/types"
)

// Version is set via ldflags at build time.
var Version = "dev"

const defaultConfigDir = "/etc/waypoint"
const defaultSnapshotDir = "/@snapshots"
const defaultAuditLog = "/var/log/waypoint/audit.log"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "waypoint-helper",
	Short:   "Privileged D-Bus helper for snapshot and backup operations",
	Version: Version,
	RunE:    runHelper,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", true, "Output logs in JSON format")
	rootCmd.Flags().String("config-dir", defaultConfigDir, "Directory holding schedule/retention/quota config files")
	rootCmd.Flags().String("snapshot-dir", defaultSnapshotDir, "On-disk root of the snapshot subvolume layout")
	rootCmd.Flags().String("audit-log", defaultAuditLog, "Path the audit trail is appended to")
	rootCmd.Flags().Int64("min-free-bytes", 1<<30, "Minimum free space required on the root filesystem before a capture is allowed")
	rootCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address the /metrics, /health, /ready, and /live endpoints are served on")
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOutput})
}

func runHelper(cmd *cobra.Command, args []string) error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("waypoint-helper must run as root, not %s", effectiveUser())
	}

	logger := log.WithComponent("helper")

	configDir, _ := cmd.Flags().GetString("config-dir")
	snapshotDir, _ := cmd.Flags().GetString("snapshot-dir")
	auditLogPath, _ := cmd.Flags().GetString("audit-log")
	minFreeBytes, _ := cmd.Flags().GetInt64("min-free-bytes")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	paths := ipc.Paths{
		SchedulesConfig:  filepath.Join(configDir, "schedules.yaml"),
		RetentionConfig:  filepath.Join(configDir, "retention.yaml"),
		QuotaConfig:      filepath.Join(configDir, "quota.yaml"),
		SnapshotsDirUI:   snapshotDir,
		SnapshotsDirDisk: snapshotDir,
		QuotaRoot:        "/",
	}

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	adapter := cowfs.NewAdapter()
	metaStore := metadata.NewStore(filepath.Join(snapshotDir, "snapshots.json"))
	snapMgr := snapshot.NewManager(adapter, metaStore, snapshotDir, minFreeBytes, snapshot.WithBroker(broker))
	rollbackEng := rollback.NewEngine(adapter, metaStore, snapMgr, "/")
	metrics.RegisterComponent("cowfs", true, "adapter ready")

	scanner := backup.NewScanner(backup.ProcMounts{}, snapshotDir)
	backupEng := backup.NewEngine(adapter, scanner, metaStore)

	pendingStore := pending.NewStore(filepath.Join(configDir, "backup.yaml"))
	coordinator := pending.NewCoordinator(pendingStore, metaStore, backupEng)

	metricsCollector := metrics.NewCollector(metaStore, pendingStore)
	metricsCollector.Start()
	defer metricsCollector.Stop()
	metrics.SetVersion(Version)
	mountInterval, err := pendingStore.MountCheckInterval()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load mount-check interval; using default")
		mountInterval = 30 * time.Second
	}
	mountMon := mount.NewMonitor(scanner, mountInterval,
		func(d types.DiscoveredDestination) {
			dlog := logger.With().Str("destination_uuid", d.UUID).Logger()
			snaps, err := metaStore.List()
			if err != nil {
				dlog.Warn().Err(err).Msg("failed to list snapshots for newly-mounted destination")
				return
			}
			if err := coordinator.QueueDestinationSnapshots(d.UUID, snaps, nil); err != nil {
				dlog.Warn().Err(err).Msg("failed to queue snapshots for newly-mounted destination")
				return
			}
			successCount, failCount, errs := coordinator.ProcessPending(context.Background(), d.UUID, d.MountPoint, snapshotDir)
			dlog.Info().Int("succeeded", successCount).Int("failed", failCount).Strs("errors", errs).Msg("processed pending backups for mounted destination")
		},
		func(uuid string) {
			logger.Info().Str("destination_uuid", uuid).Msg("backup destination unmounted")
		},
	)
	if err := mountMon.Initialize(); err != nil {
		logger.Warn().Err(err).Msg("failed to run initial backup destination scan")
	}
	mountMon.Start()
	defer mountMon.Stop()

	schedCfg, err := config.LoadSchedules(paths.SchedulesConfig)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load schedule config; starting with an empty schedule list")
	}
	sched := scheduler.NewScheduler(schedCfg.Schedules, snapMgr)
	sched.Start()
	defer sched.Stop()

	if err := os.MkdirAll(filepath.Dir(auditLogPath), 0o750); err != nil {
		return fmt.Errorf("create audit log directory: %w", err)
	}
	auditFile, err := os.OpenFile(auditLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer auditFile.Close()
	auditor := audit.NewEmitter(auditFile)

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("connect to system bus: %w", err)
	}
	defer conn.Close()

	resolver := auth.NewBusPIDResolver(conn)
	policyAgent := auth.NewPolkitAgent(conn)
	checker := auth.NewChecker(resolver, policyAgent)

	svc := ipc.NewService(ipc.Deps{
		Snapshots: snapMgr,
		Rollback:  rollbackEng,
		Backup:    backupEng,
		Scanner:   scanner,
		Scheduler: sched,
		Quota:     adapter,
		Checker:   checker,
		Resolver:  resolver,
		Auditor:   auditor,
		Pending:   coordinator,
		Paths:     paths,
	})

	if err := svc.Export(conn); err != nil {
		return fmt.Errorf("export D-Bus service: %w", err)
	}
	metrics.RegisterComponent("ipc", true, "method table exported")

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsMux.Handle("/health", metrics.HealthHandler())
	metricsMux.Handle("/ready", metrics.ReadyHandler())
	metricsMux.Handle("/live", metrics.LivenessHandler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped unexpectedly")
		}
	}()
	defer metricsSrv.Close()

	logger.Info().Str("service", ipc.ServiceName).Str("metrics_addr", metricsAddr).Msg("waypoint-helper ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("waypoint-helper shutting down")
	return nil
}

// effectiveUser returns the running user's name, for diagnostics when the
// root check above fails before logging is configured.
func effectiveUser() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}
