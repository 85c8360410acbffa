package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Enable, disable, and inspect qgroup quotas",
}

var quotaEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn on qgroup accounting for the configured quota root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		simple, _ := cmd.Flags().GetBool("simple")
		return callBoolString("EnableQuotas", simple)
	},
}

var quotaDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn off qgroup accounting for the configured quota root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return callBoolString("DisableQuotas")
	},
}

var quotaUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Report current quota consumption as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return callBoolString("GetQuotaUsage")
	},
}

var quotaSetLimitCmd = &cobra.Command{
	Use:   "set-limit BYTES",
	Short: "Set the qgroup byte limit on the configured quota root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bytes, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		return callBoolString("SetQuotaLimit", bytes)
	},
}

var quotaSaveConfigCmd = &cobra.Command{
	Use:   "save-config FILE",
	Short: "Replace the quota config document with FILE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return callBoolString("SaveQuotaConfig", string(content))
	},
}
