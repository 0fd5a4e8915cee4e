package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/model"
	"github.com/manav03panchal/mindstore/internal/output"
)

// queueCmd groups offline queue commands.
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and replay operations queued while offline",
}

var queueListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List queued operations in replay order",
	Args:    cobra.NoArgs,
	RunE:    runQueueList,
}

// Queue flags.
var (
	queueListFlagOperation string
	queueReplayFlagWatch   bool
)

var queueReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay queued operations now",
	Long: `Replay queued operations once, or with --watch keep replaying on the
configured interval (MINDSTORE_QUEUE_REPLAY_INTERVAL) and sweeping expired
logs until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  runQueueReplay,
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every queued operation",
	Args:  cobra.NoArgs,
	RunE:  runQueueClear,
}

func init() {
	queueListCmd.Flags().StringVar(&queueListFlagOperation, "operation", "", "Only entries for this operation")
	queueReplayCmd.Flags().BoolVarP(&queueReplayFlagWatch, "watch", "w", false, "Keep replaying until interrupted")

	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueReplayCmd)
	queueCmd.AddCommand(queueClearCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueueList(cmd *cobra.Command, args []string) error {
	var entries []model.OfflineQueueEntry
	if queueListFlagOperation != "" {
		entries = app.Queue.Pending(cmd.Context(), queueListFlagOperation)
	} else {
		entries = app.Queue.DequeueAllOrdered(cmd.Context())
	}

	if app.IsJSON() {
		if entries == nil {
			entries = []model.OfflineQueueEntry{}
		}
		return app.Formatter.JSON(entries)
	}

	cli := app.CLIFormatter()
	if len(entries) == 0 {
		cli.Muted("Queue is empty.")
		return nil
	}
	rows := make([]output.TableRow, len(entries))
	for i, e := range entries {
		rows[i] = output.TableRow{Columns: []string{
			strconv.FormatInt(e.ID, 10),
			e.Operation,
			strconv.Itoa(e.Priority),
			strconv.Itoa(e.Retries),
			output.FormatAgo(e.Timestamp, app.Now()),
		}}
	}
	cli.PrintTable([]string{"ID", "OPERATION", "PRIORITY", "RETRIES", "QUEUED"}, rows)
	return nil
}

func runQueueReplay(cmd *cobra.Command, args []string) error {
	if queueReplayFlagWatch {
		return watchQueue(cmd.Context())
	}

	res := app.Replayer.ReplayOnce(cmd.Context())

	if app.IsJSON() {
		return app.Formatter.JSON(res)
	}
	cli := app.CLIFormatter()
	cli.Success(fmt.Sprintf("Replayed %d, failed %d, dropped %d, skipped %d",
		res.Replayed, res.Failed, res.Dropped, res.Skipped))
	if left := app.Queue.Len(cmd.Context()); left > 0 {
		cli.Muted(fmt.Sprintf("  %d still queued", left))
	}
	return nil
}

func runQueueClear(cmd *cobra.Command, args []string) error {
	n, err := app.QueueRepo.Clear(cmd.Context())
	if err != nil {
		return err
	}
	if app.IsJSON() {
		return app.JSONFormatter().PrintResult("cleared", "", n)
	}
	app.CLIFormatter().Success(fmt.Sprintf("Dropped %d queued operations", n))
	return nil
}

// watchQueue runs the background workers in the foreground until SIGINT
// or SIGTERM.
func watchQueue(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !app.IsJSON() {
		app.CLIFormatter().Muted(fmt.Sprintf("Replaying every %s. Press Ctrl+C to stop.", app.Config.Queue.ReplayInterval))
	}
	app.Sweeper.Start(ctx)
	app.Replayer.Trigger()
	if err := app.Replayer.Run(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
