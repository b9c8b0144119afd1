// Package cmd implements CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show traffic statistics and anomaly report",
	Long: `Analyze the capture buffer.

Reports protocol distribution, top ports, per-IP traffic, packet sizes,
timing, top talkers, security posture, and the anomaly detection findings
with per-IP suspicion scores.`,
	Run: func(cmd *cobra.Command, args []string) {
		callDaemon("capture.statistics", nil)
	},
}
