// Package cmd implements CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show capture session status",
	Long: `Query the daemon for the current capture session.

Shows: session ID, interface, state, packet count, and timestamps.`,
	Run: func(cmd *cobra.Command, args []string) {
		callDaemon("capture.status", nil)
	},
}

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Shut down the daemon",
	Run: func(cmd *cobra.Command, args []string) {
		callDaemon("daemon.shutdown", nil)
	},
}
