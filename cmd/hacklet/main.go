// Hacklet is a command line tool for Modlet smart power outlets.
//
// It drives the Modlet USB radio dongle over a serial link to
// commission new outlets, switch individual sockets on and off, and
// read back the power samples the outlets record.
//
// Usage:
//
//	hacklet [command] [flags]
//
// See 'hacklet --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/hacklet/internal/logging"
	"github.com/muurk/hacklet/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hacklet",
	Short: "Modlet Smart Outlet Control Utility",
	Long: `A command line tool for Modlet smart power outlets.

Talks to the Modlet USB radio dongle to commission new outlets,
switch sockets on and off, and read recorded power samples.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugOutput {
			return logging.Initialize("debug")
		}
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
		fmt.Printf("hacklet %s (commit: %s)\n", version.Version, version.Commit)
	},
}
