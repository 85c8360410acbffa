package main

import (
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create, inspect, and remove snapshots",
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Capture a new snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		subvolumes, _ := cmd.Flags().GetStringSlice("subvolume")
		return callBoolString("CreateSnapshot", args[0], description, subvolumes)
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callBoolString("DeleteSnapshot", args[0])
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known snapshots as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return callString("ListSnapshots")
	},
}

var snapshotSizesCmd = &cobra.Command{
	Use:   "sizes NAME...",
	Short: "Report apparent size in bytes for the named snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callString("GetSnapshotSizes", args)
	},
}

var snapshotVerifyCmd = &cobra.Command{
	Use:   "verify NAME",
	Short: "Verify a snapshot's on-disk subvolumes still resolve",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callString("VerifySnapshot", args[0])
	},
}
