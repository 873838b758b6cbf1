package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Real-time chat relay",
	Long: `Relay accepts chat messages over HTTP and broadcasts them to every
connected listener over Server-Sent Events or WebSocket.

Available commands:
  serve      Start the HTTP server
  version    Print the version

Use "relay [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
