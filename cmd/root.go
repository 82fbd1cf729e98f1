// Package cmd contains the CLI commands for the casecheck application.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

// verbose holds the global --verbose flag state.
var verbose bool

func init() {
	rootCmd = BuildCommandTree(NewCheckAdapter())
}

// GetVerbose returns the current verbose flag state.
func GetVerbose() bool {
	return verbose
}

// NewRootCmd creates a new root command instance without subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "casecheck",
		Short: "Validate Markdown test case documents",
		Long: "casecheck validates a corpus of Markdown test case documents: YAML front matter " +
			"against a JSON Schema, filenames against ids, and numbered steps against their expectations.",
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")

	return cmd
}

// BuildCommandTree creates the root command with every subcommand registered.
func BuildCommandTree(checker CheckRunner) *cobra.Command {
	root := NewRootCmd()
	root.AddCommand(NewCheckCmd(checker))
	return root
}

// ExecuteContext runs the root command with the given context.
// This enables graceful shutdown via context cancellation (e.g., on SIGINT).
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
