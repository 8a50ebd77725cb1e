// Package cli implements the sinkfield command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/reoring/sinkfield/internal/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sinkfield",
	Short: "Extract typed rows from nested records",
	Long: `sinkfield reads JSON, NDJSON or YAML records, extracts one row per record
according to a declarative schema file, and writes the rows as NDJSON, into a
local SQLite database, or into BigQuery.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
