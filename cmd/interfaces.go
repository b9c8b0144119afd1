// Package cmd implements CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List capturable network interfaces",
	Long: `List the host's network interfaces as the daemon sees them.

Each entry shows the interface name, its addresses, whether it is up,
and whether it looks virtual (bridges, veth pairs, tunnels).`,
	Run: func(cmd *cobra.Command, args []string) {
		callDaemon("interfaces.list", nil)
	},
}
