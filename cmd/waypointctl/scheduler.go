package main

import (
	"os"

	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Inspect and control the scheduled-capture worker set",
}

var schedulerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the worker set is running and what it holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return callString("GetSchedulerStatus")
	},
}

var schedulerRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Reload schedules.yaml and restart the worker set against it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return callBoolString("RestartScheduler")
	},
}

var schedulerSaveConfigCmd = &cobra.Command{
	Use:   "save-config FILE",
	Short: "Replace schedules.yaml with FILE and restart the worker set against it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return callBoolString("SaveSchedulesConfig", string(content))
	},
}

var schedulerCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Apply retention and delete snapshots that fall outside it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bySchedule, _ := cmd.Flags().GetBool("by-schedule")
		return callBoolString("CleanupSnapshots", bySchedule)
	},
}
