// Omnilink is a command line client for HAI/Leviton Omni-Link II
// security and automation controllers.
//
// It connects over the encrypted Omni-Link II TCP protocol to query
// status, arm and disarm areas, control units, thermostats and locks, and
// stream live status changes.
//
// Usage:
//
//	omnilink [command] [flags]
//
// Connection settings come from a saved profile (see 'omnilink config'),
// or from --address and --key-file. See 'omnilink --help' for commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/omnilink/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "omnilink",
	Short: "Omni-Link II controller client",
	Long: `A command line client for HAI/Leviton Omni-Link II controllers.

Queries system and object status, issues security and automation commands,
and monitors live status changes over the controller's encrypted TCP
interface.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Banner("omnilink"))
	},
}
