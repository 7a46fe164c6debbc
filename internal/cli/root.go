// Package cli implements the leansched command line.
package cli

import (
	"log/slog"
	"os"

	"github.com/nacansino/lean-scheduler/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string
	flagDB        string

	logger *slog.Logger
)

// defaultDB returns the history database path, checking LEANSCHED_DB first.
func defaultDB() string {
	if s := os.Getenv("LEANSCHED_DB"); s != "" {
		return s
	}
	return ""
}

// NewRootCmd creates the root cobra command for the leansched CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "leansched",
		Short: "Fixed-table, tick-driven task dispatcher",
		Long: "leansched validates, simulates and runs task tables on a cooperative,\n" +
			"tick-driven dispatcher, and keeps a history of past runs.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(logging.Options{
				Level:  logging.ParseLevel(flagLogLevel),
				Format: flagLogFormat,
				Output: cmd.ErrOrStderr(),
			})
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().StringVar(&flagDB, "db", defaultDB(), "Run history database (default from config, or LEANSCHED_DB env)")

	root.AddCommand(
		newValidateCmd(),
		newSimulateCmd(),
		newRunCmd(),
		newHistoryCmd(),
	)

	return root
}
