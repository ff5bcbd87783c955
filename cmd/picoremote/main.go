// Picoremote is the embedded secure control server for PicoTorrent.
//
// It exposes a running instance to remote-control clients over an
// encrypted, token-authenticated WebSocket channel, guards single-instance
// startup through a loopback activation port, and can advertise the
// endpoint over mDNS for LAN discovery.
//
// Usage:
//
//	picoremote serve [flags]
//
// See 'picoremote --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/picotorrent/picoremote/internal/logging"
	"github.com/picotorrent/picoremote/internal/urls"
	"github.com/picotorrent/picoremote/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "picoremote",
	Short: "PicoTorrent Remote Control Server",
	Long: `The embedded secure control server for PicoTorrent.

Hosts a TLS WebSocket endpoint that remote-control clients authenticate
against with a shared access token. The token and the self-signed
certificate are provisioned automatically on first start and persisted
in the configuration file.

Use 'picoremote serve' to start the endpoint, 'picoremote token show'
to read the provisioned access token, and 'picoremote connect' to
smoke-test a running endpoint.

Documentation: ` + urls.GettingStarted,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent by default; PICOREMOTE_LOG_LEVEL turns on diagnostics for
		// any command. The serve command re-initializes with its own level.
		return logging.InitializeFromEnv()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("picoremote %s\n", version.Full())
	},
}
