// Package cmd implements CLI commands.
package cmd

import (
	"github.com/spf13/cobra"

	"netlens.dev/netlens/internal/command"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the capture buffer to a file",
	Long: `Write the capture buffer to disk.

Formats:
  json   full packet records, loadable back into analysis tools
  pcap   raw frames, readable by tcpdump and Wireshark
  csv    one summary row per packet, spreadsheet friendly

Without --output the daemon picks a session-derived filename in its
export directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		callDaemon("capture.export", command.ExportParams{
			Format: exportFormat,
			Path:   exportOutput,
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format: json, pcap, or csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file path")
}
