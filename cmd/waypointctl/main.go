package main

import (
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/Letdown2491/waypoint/pkg/ipc"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "waypointctl",
	Short:   "Operator CLI over the waypoint-helper D-Bus surface",
	Version: Version,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(quotaCmd)
	rootCmd.AddCommand(backupCmd)

	snapshotCmd.AddCommand(snapshotCreateCmd, snapshotDeleteCmd, snapshotListCmd, snapshotSizesCmd, snapshotVerifyCmd)
	snapshotCreateCmd.Flags().String("description", "", "Human-readable description")
	snapshotCreateCmd.Flags().StringSlice("subvolume", nil, "Subvolume mount point to capture (repeatable); defaults to /")

	restoreCmd.AddCommand(restorePreviewCmd, restoreApplyCmd, restoreFilesCmd, restoreCompareCmd)
	restoreFilesCmd.Flags().String("target-dir", "", "Directory to extract the requested paths into")
	restoreFilesCmd.Flags().Bool("overwrite", false, "Overwrite existing files at the target")

	schedulerCmd.AddCommand(schedulerStatusCmd, schedulerRestartCmd, schedulerSaveConfigCmd, schedulerCleanupCmd)
	schedulerCleanupCmd.Flags().Bool("by-schedule", false, "Apply each schedule's own keep-count/keep-days instead of the global policy")

	quotaCmd.AddCommand(quotaEnableCmd, quotaDisableCmd, quotaUsageCmd, quotaSetLimitCmd, quotaSaveConfigCmd)
	quotaEnableCmd.Flags().Bool("simple", true, "Use the simple single-level qgroup scheme")

	backupCmd.AddCommand(backupScanCmd, backupRunCmd, backupListCmd, backupRestoreCmd)
	backupRunCmd.Flags().String("parent", "", "Path of the prior snapshot to send as a delta against")
}

// dial connects to the system bus and returns the waypoint-helper's
// exported object.
func dial() (*dbus.Conn, dbus.BusObject, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, nil, fmt.Errorf("connect to system bus: %w", err)
	}
	obj := conn.Object(ipc.ServiceName, ipc.ObjectPath)
	return conn, obj, nil
}

// callBoolString invokes a method that returns (bool, string) and prints
// the message, returning an error when the call failed or the helper
// reported success=false.
func callBoolString(method string, args ...any) error {
	conn, obj, err := dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	var ok bool
	var msg string
	call := obj.Call(ipc.ServiceName+"."+method, 0, args...)
	if call.Err != nil {
		return call.Err
	}
	if err := call.Store(&ok, &msg); err != nil {
		return fmt.Errorf("unmarshal %s reply: %w", method, err)
	}
	fmt.Println(msg)
	if !ok {
		return fmt.Errorf("%s failed", method)
	}
	return nil
}

// callString invokes a read-only method that returns a single JSON string.
func callString(method string, args ...any) error {
	conn, obj, err := dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	var out string
	call := obj.Call(ipc.ServiceName+"."+method, 0, args...)
	if call.Err != nil {
		return call.Err
	}
	if err := call.Store(&out); err != nil {
		return fmt.Errorf("unmarshal %s reply: %w", method, err)
	}
	fmt.Println(out)
	return nil
}
