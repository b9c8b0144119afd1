// Package cmd implements CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the capture buffer",
	Long: `Discard the buffer of a finished session.

Fails while a capture is still running; stop it first.`,
	Run: func(cmd *cobra.Command, args []string) {
		callDaemon("capture.clear", nil)
	},
}
