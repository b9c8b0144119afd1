// Package cmd implements CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running capture session",
	Long: `Stop the running capture session.

The captured buffer stays available for 'netlens packets', 'netlens stats',
and 'netlens export' until the next start or an explicit 'netlens clear'.`,
	Run: func(cmd *cobra.Command, args []string) {
		callDaemon("capture.stop", nil)
	},
}
