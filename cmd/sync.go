package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/output"
	"github.com/manav03panchal/mindstore/internal/remote"
)

// syncCmd groups remote object storage commands.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push and pull projects to remote object storage",
	Long: `Sync projects with an S3-compatible bucket. Configure it with
MINDSTORE_S3_BUCKET, MINDSTORE_S3_REGION and, for non-AWS endpoints,
MINDSTORE_S3_ENDPOINT. Uploads that fail are queued and replayed later.

Examples:
  mindstore sync push 0193a5c2-...
  mindstore sync versions 0193a5c2-...
  mindstore sync pull 0193a5c2-... --version 2025.3.15-1005 --apply`,
}

// Sync flags.
var (
	syncPullFlagVersion string
	syncPullFlagApply   bool
)

var syncPushCmd = &cobra.Command{
	Use:               "push PROJECT_ID",
	Short:             "Upload the current project state",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runSyncPush,
}

var syncPullCmd = &cobra.Command{
	Use:               "pull PROJECT_ID",
	Short:             "Download a project version",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runSyncPull,
}

var syncVersionsCmd = &cobra.Command{
	Use:               "versions PROJECT_ID",
	Short:             "List remote versions of a project",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runSyncVersions,
}

func init() {
	syncPullCmd.Flags().StringVar(&syncPullFlagVersion, "version", "", "Version to download (default: latest)")
	syncPullCmd.Flags().BoolVar(&syncPullFlagApply, "apply", false, "Replace the local project with the download")

	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncVersionsCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSyncPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if !app.Syncer.Enabled() {
		return errors.ErrSyncDisabled
	}
	p, err := lookupProject(ctx, args[0])
	if err != nil {
		return err
	}

	res, err := app.Syncer.Push(ctx, p)
	if err != nil {
		return err
	}

	if app.IsJSON() {
		return app.Formatter.JSON(res)
	}
	cli := app.CLIFormatter()
	if res.Queued() {
		cli.Warning(fmt.Sprintf("Remote unreachable; upload queued as #%d", res.QueuedID))
		return nil
	}
	cli.Success("Uploaded " + cli.Version(res.Upload.Version))
	cli.KeyValue("key", res.Upload.Key)
	return nil
}

func runSyncPull(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := app.Syncer.Pull(ctx, args[0], syncPullFlagVersion)
	if err != nil {
		return err
	}
	if p == nil {
		version := syncPullFlagVersion
		if version == "" {
			version = "latest"
		}
		return errors.NewUserErrorWithField("version", version, "remote version not found",
			"Run 'mindstore sync versions "+args[0]+"' to see what is stored")
	}

	if syncPullFlagApply {
		if app.ProjectRepo.Get(ctx, p.ID) == nil {
			if _, err := app.ProjectRepo.Put(ctx, p); err != nil {
				return err
			}
		} else if p, err = app.Projects.Update(ctx, p); err != nil {
			return err
		}
	}
	return printProject(p)
}

func runSyncVersions(cmd *cobra.Command, args []string) error {
	versions, err := app.Syncer.Versions(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if app.IsJSON() {
		if versions == nil {
			versions = []remote.VersionInfo{}
		}
		return app.Formatter.JSON(versions)
	}

	cli := app.CLIFormatter()
	if len(versions) == 0 {
		cli.Muted("No remote versions.")
		return nil
	}
	rows := make([]output.TableRow, len(versions))
	for i, v := range versions {
		rows[i] = output.TableRow{Columns: []string{cli.Version(v.Version), output.FormatTime(v.LastModified)}}
	}
	cli.PrintTable([]string{"VERSION", "MODIFIED"}, rows)
	return nil
}
