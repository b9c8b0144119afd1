// Package cmd implements CLI commands.
package cmd

import (
	"github.com/spf13/cobra"

	"netlens.dev/netlens/internal/command"
)

var (
	startInterface string
	startCount     int
	startFilter    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a capture session",
	Long: `Start capturing packets on a network interface.

Only one session runs at a time. With --count the session stops itself
after that many packets; otherwise it runs until 'netlens stop'. The
filter uses BPF syntax, e.g. 'tcp port 443'.`,
	Run: func(cmd *cobra.Command, args []string) {
		if startInterface == "" {
			exitWithError("--interface is required", nil)
		}
		callDaemon("capture.start", command.StartParams{
			Interface: startInterface,
			Count:     startCount,
			Filter:    startFilter,
		})
	},
}

func init() {
	startCmd.Flags().StringVarP(&startInterface, "interface", "i", "", "interface to capture on")
	startCmd.Flags().IntVarP(&startCount, "count", "n", 0, "stop after this many packets (0 = unlimited)")
	startCmd.Flags().StringVarP(&startFilter, "filter", "f", "", "BPF filter expression")
}
