package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Letdown2491/waypoint/pkg/config"
	"github.com/Letdown2491/waypoint/pkg/cowfs"
	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/metadata"
	"github.com/Letdown2491/waypoint/pkg/scheduler"
	"github.com/Letdown2491/waypoint/pkg/snapshot"
)

// Version is set via ldflags at build time.
var Version = "dev"

const defaultConfigDir = "/etc/waypoint"
const defaultSnapshotDir = "/@snapshots"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "waypoint-scheduler",
	Short:   "Standalone scheduled-capture worker process",
	Version: Version,
	RunE:    runScheduler,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", true, "Output logs in JSON format")
	rootCmd.Flags().String("config-dir", defaultConfigDir, "Directory holding schedules.yaml")
	rootCmd.Flags().String("snapshot-dir", defaultSnapshotDir, "On-disk root of the snapshot subvolume layout")
	rootCmd.Flags().Int64("min-free-bytes", 1<<30, "Minimum free space required on the root filesystem before a capture is allowed")
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOutput})
}

// runScheduler runs the schedule worker set standalone, outside of the
// D-Bus helper, for deployments that drive captures without exposing the
// privileged IPC surface at all.
func runScheduler(cmd *cobra.Command, args []string) error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("waypoint-scheduler must run as root")
	}

	logger := log.WithComponent("scheduler-daemon")

	configDir, _ := cmd.Flags().GetString("config-dir")
	snapshotDir, _ := cmd.Flags().GetString("snapshot-dir")
	minFreeBytes, _ := cmd.Flags().GetInt64("min-free-bytes")

	adapter := cowfs.NewAdapter()
	metaStore := metadata.NewStore(filepath.Join(snapshotDir, "snapshots.json"))
	snapMgr := snapshot.NewManager(adapter, metaStore, snapshotDir, minFreeBytes)

	schedulesPath := filepath.Join(configDir, "schedules.yaml")
	schedCfg, err := config.LoadSchedules(schedulesPath)
	if err != nil {
		return fmt.Errorf("load schedule config: %w", err)
	}

	sched := scheduler.NewScheduler(schedCfg.Schedules, snapMgr)
	sched.Start()
	logger.Info().Int("schedules", len(schedCfg.Schedules)).Msg("waypoint-scheduler ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	sched.Stop()
	logger.Info().Msg("waypoint-scheduler shut down")
	return nil
}
