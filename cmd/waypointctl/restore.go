package main

import (
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Preview, apply, and compare snapshot restores",
}

var restorePreviewCmd = &cobra.Command{
	Use:   "preview NAME",
	Short: "Show what restoring NAME would change, without doing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callBoolString("PreviewRestore", args[0])
	},
}

var restoreApplyCmd = &cobra.Command{
	Use:   "apply NAME",
	Short: "Make NAME the default boot subvolume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callBoolString("RestoreSnapshot", args[0])
	},
}

var restoreFilesCmd = &cobra.Command{
	Use:   "files NAME PATH...",
	Short: "Extract individual paths from a snapshot",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		targetDir, _ := cmd.Flags().GetString("target-dir")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		return callBoolString("RestoreFiles", args[0], args[1:], targetDir, overwrite)
	},
}

var restoreCompareCmd = &cobra.Command{
	Use:   "compare OLD NEW",
	Short: "Diff two snapshots",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callBoolString("CompareSnapshots", args[0], args[1])
	},
}
