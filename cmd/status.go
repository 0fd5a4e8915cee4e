package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/storage"
)

// statusCmd shows storage health.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show storage mode, schema and queue state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

// Backup flags.
var backupFlagDir string

// backupCmd writes a full database backup.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a full backup of the database",
	Long: `Stream a full backup of the primary database into a file.

Examples:
  mindstore backup
  mindstore backup --dir /mnt/external/mindstore`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().StringVar(&backupFlagDir, "dir", "", "Backup directory (default: next to the database)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(backupCmd)
}

// runStatus shows the current storage status.
func runStatus(cmd *cobra.Command, args []string) error {
	status := app.Status(cmd.Context())

	if app.IsJSON() {
		return app.JSONFormatter().PrintStatus(status)
	}

	cli := app.CLIFormatter()
	cli.Title("Mindstore")
	switch status.Status {
	case "ok":
		cli.Success("storage " + status.Mode + " (" + status.Backend + ")")
	case "degraded":
		cli.Warning("storage degraded (" + status.Backend + "): " + status.Reason)
	default:
		cli.Error("storage unavailable: " + status.Reason)
	}
	if status.Error != "" {
		cli.KeyValue("error", status.Error)
	}
	if status.DataPath != "" {
		cli.KeyValue("path", status.DataPath)
		if status.DiskFree > 0 {
			cli.KeyValue("disk free", fmt.Sprintf("%.1f%%", status.DiskFree))
		}
		if warning := storage.CheckDiskSpaceWarning(status.DataPath); warning != "" {
			cli.Warning(warning)
		}
	}
	cli.KeyValue("schema", status.SchemaVersion)
	cli.KeyValue("stores", strings.Join(status.Stores, ", "))
	cli.KeyValue("queued", status.QueueLength)
	cli.KeyValue("sync", enabledLabel(status.SyncEnabled))
	cli.KeyValue("encryption", enabledLabel(status.Encryption))
	return nil
}

func enabledLabel(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func runBackup(cmd *cobra.Command, args []string) error {
	if app.Gateway.Mode() != storage.ModePrimary {
		return errors.NewSystemError("backup needs the primary database", errors.ErrUnavailable)
	}
	if app.Config.Storage.InMemory {
		return errors.NewUserError("an in-memory database cannot be backed up", "Run without --db :memory:")
	}

	dir := backupFlagDir
	if dir == "" {
		dir = storage.DefaultBackupDir(app.Config.Storage.Path)
	}
	path, err := storage.CreateBackup(app.Primary, dir)
	if err != nil {
		return err
	}

	if app.IsJSON() {
		return app.JSONFormatter().PrintResult("ok", path, 1)
	}
	app.CLIFormatter().Success("Backup written to " + path)
	return nil
}
