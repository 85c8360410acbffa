package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Letdown2491/waypoint/pkg/ipc"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Scan destinations and replicate snapshots to eligible destination mounts",
}

var backupScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List eligible backup destination mounts as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return callString("ScanBackupDestinations")
	},
}

var backupRunCmd = &cobra.Command{
	Use:   "run SNAPSHOT_PATH DESTINATION_MOUNT",
	Short: "Replicate a snapshot to a destination mount, as a delta against --parent when given",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")
		return backupSnapshot(args[0], args[1], parent)
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list DESTINATION_MOUNT",
	Short: "List backup identifiers found on a destination mount",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callString("ListBackups", args[0])
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore BACKUP_PATH SNAPSHOTS_DIR",
	Short: "Recreate a snapshot subvolume from a backup",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callBoolString("RestoreFromBackup", args[0], args[1])
	},
}

// backupSnapshot calls BackupSnapshot, whose reply carries an extra
// bytes-transferred field that callBoolString's (bool, string) shape can't
// hold.
func backupSnapshot(snapshotPath, destinationMount, parentSnapshotPath string) error {
	conn, obj, err := dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	var ok bool
	var msg string
	var bytesDone int64
	call := obj.Call(ipc.ServiceName+".BackupSnapshot", 0, snapshotPath, destinationMount, parentSnapshotPath)
	if call.Err != nil {
		return call.Err
	}
	if err := call.Store(&ok, &msg, &bytesDone); err != nil {
		return fmt.Errorf("unmarshal BackupSnapshot reply: %w", err)
	}
	fmt.Printf("%s (%d bytes)\n", msg, bytesDone)
	if !ok {
		return fmt.Errorf("BackupSnapshot failed")
	}
	return nil
}
