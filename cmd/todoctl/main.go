// Package main implements the todoctl CLI for the todod server and its
// JSON database.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version information
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the persistent flags shared by all commands.
type options struct {
	serverURL string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "todoctl",
		Short: "CLI for the todod to-do list server",
		Long: `todoctl manages tasks on a running todod server and maintains the
JSON database file it stores them in.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.serverURL, "server", "http://localhost:3001", "todod server URL")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(
		newHealthCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newCompleteCmd(opts),
		newStarCmd(opts),
		newDeleteCmd(opts),
		newStatsCmd(opts),
		newMigrateCmd(opts),
		newValidateCmd(),
		newExportCmd(opts),
	)
	return root
}
