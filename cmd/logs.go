package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
	"github.com/manav03panchal/mindstore/internal/parser"
	"github.com/manav03panchal/mindstore/internal/storage"
)

// logsCmd groups persisted log commands.
var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Inspect and prune the persisted application log",
	Long: `Warnings and errors are persisted in the local database and swept after
the retention period (MINDSTORE_LOG_RETENTION_DAYS).

Examples:
  mindstore logs list --level error --since yesterday
  mindstore logs clear --before "last month"
  mindstore logs clear --all`,
}

// Logs flags.
var (
	logsListFlagLevel string
	logsListFlagSince string
	logsListFlagLimit int

	logsClearFlagBefore string
	logsClearFlagAll    bool
)

var logsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List persisted log entries, newest first",
	Args:    cobra.NoArgs,
	RunE:    runLogsList,
}

var logsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete persisted log entries",
	Args:  cobra.NoArgs,
	RunE:  runLogsClear,
}

func init() {
	logsListCmd.Flags().StringVarP(&logsListFlagLevel, "level", "l", "", "Minimum level: debug, info, warn, error, critical")
	logsListCmd.Flags().StringVar(&logsListFlagSince, "since", "", "Only entries after this time (e.g. 'yesterday', '2 hours ago')")
	logsListCmd.Flags().IntVarP(&logsListFlagLimit, "limit", "n", 50, "Maximum entries to show (0 for all)")
	logsListCmd.RegisterFlagCompletionFunc("level", cobra.FixedCompletions(
		[]string{"debug", "info", "warn", "error", "critical"}, cobra.ShellCompDirectiveNoFileComp))

	logsClearCmd.Flags().StringVar(&logsClearFlagBefore, "before", "", "Delete entries older than this time")
	logsClearCmd.Flags().BoolVar(&logsClearFlagAll, "all", false, "Delete every entry")
	logsClearCmd.MarkFlagsMutuallyExclusive("before", "all")
	logsClearCmd.MarkFlagsOneRequired("before", "all")

	logsCmd.AddCommand(logsListCmd)
	logsCmd.AddCommand(logsClearCmd)
	rootCmd.AddCommand(logsCmd)
}

func runLogsList(cmd *cobra.Command, args []string) error {
	filter := storage.LogFilter{Limit: logsListFlagLimit}
	if logsListFlagLevel != "" {
		level, err := model.ParseLogLevel(logsListFlagLevel)
		if err != nil {
			return errors.NewUserErrorWithField("level", logsListFlagLevel, err.Error(), "Use debug, info, warn, error or critical")
		}
		filter.Level = level
	}
	if logsListFlagSince != "" {
		since, err := parser.ParseTimestamp(logsListFlagSince, app.Now())
		if err != nil {
			return err
		}
		filter.Since = since
	}

	entries := app.Logs.List(cmd.Context(), filter)
	if app.IsJSON() {
		if entries == nil {
			entries = []model.LogEntry{}
		}
		return app.Formatter.JSON(entries)
	}

	if len(entries) == 0 {
		app.CLIFormatter().Muted("No log entries.")
		return nil
	}
	app.CLIFormatter().PrintLogs(entries)
	return nil
}

func runLogsClear(cmd *cobra.Command, args []string) error {
	var before time.Time
	if !logsClearFlagAll {
		t, err := parser.ParseTimestamp(logsClearFlagBefore, app.Now())
		if err != nil {
			return err
		}
		before = t
	}

	n, err := app.Logs.Clear(cmd.Context(), before)
	if err != nil {
		return err
	}
	if app.IsJSON() {
		return app.JSONFormatter().PrintResult("cleared", "", n)
	}
	app.CLIFormatter().Success(fmt.Sprintf("Deleted %d log entries", n))
	return nil
}
