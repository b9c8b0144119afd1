// Package cmd implements CLI commands.
package cmd

import (
	"github.com/spf13/cobra"

	"netlens.dev/netlens/internal/command"
)

var (
	packetsOffset int
	packetsLimit  int
)

var packetsCmd = &cobra.Command{
	Use:   "packets",
	Short: "List captured packets",
	Long: `Page through the capture buffer.

Each record carries the decoded layers, the importance level, and a
human-readable explanation of why the packet matters.`,
	Run: func(cmd *cobra.Command, args []string) {
		callDaemon("capture.packets", command.PacketsParams{
			Offset: packetsOffset,
			Limit:  packetsLimit,
		})
	},
}

func init() {
	packetsCmd.Flags().IntVar(&packetsOffset, "offset", 0, "skip this many packets")
	packetsCmd.Flags().IntVar(&packetsLimit, "limit", 50, "maximum packets to return (0 = all)")
}
