// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"netlens.dev/netlens/internal/command"
)

var (
	// Global flags
	configFile string
	socketPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "netlens",
	Short: "NetLens - network traffic capture and analysis",
	Long: `NetLens captures live network traffic, classifies every packet,
and analyzes the buffer for statistics and suspicious activity.

A capture runs inside the netlens daemon; this CLI controls it over a
Unix domain socket. Typical flow:

  netlens daemon                     # run the daemon (usually as a service)
  netlens start --interface eth0     # begin capturing
  netlens status                     # watch progress
  netlens stop                       # end the session
  netlens stats                      # statistics and anomaly report
  netlens export --format pcap       # save the buffer`,
	Version: command.Version,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/netlens/config.yml",
		"config file path")
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", "/var/run/netlens.sock",
		"daemon socket path")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(packetsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(interfacesCmd)
	rootCmd.AddCommand(shutdownCmd)
}

// newClient builds a control socket client with the global socket flag.
func newClient() *command.Client {
	return command.NewClient(socketPath, 10*time.Second)
}

// callDaemon pings the daemon, invokes method, and prints the result as
// indented JSON. Any failure terminates the process.
func callDaemon(method string, params interface{}) {
	client := newClient()
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		exitWithError("daemon is not running or socket is inaccessible", err)
	}

	result, err := client.Call(ctx, method, params)
	if err != nil {
		exitWithError(fmt.Sprintf("%s failed", method), err)
	}
	printJSON(result)
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitWithError("failed to format result", err)
	}
	fmt.Println(string(out))
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
