package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
	"github.com/manav03panchal/mindstore/internal/output"
)

// commitCmd groups version history commands.
var commitCmd = &cobra.Command{
	Use:     "commit",
	Aliases: []string{"commits", "versions"},
	Short:   "Inspect and restore project versions",
	Long: `Every project save records a commit holding a full snapshot.

Examples:
  mindstore commit list 0193a5c2-...
  mindstore commit current 0193a5c2-...
  mindstore commit checkout 0193a5c2-... 0193a5d0-...`,
}

var commitListCmd = &cobra.Command{
	Use:               "list PROJECT_ID",
	Aliases:           []string{"ls"},
	Short:             "List the commits of a project",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runCommitList,
}

var commitCurrentCmd = &cobra.Command{
	Use:               "current PROJECT_ID",
	Short:             "Show the current commit of a project",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runCommitCurrent,
}

var commitCheckoutCmd = &cobra.Command{
	Use:   "checkout PROJECT_ID COMMIT_ID",
	Short: "Restore a project to the snapshot of a commit",
	Args:  cobra.ExactArgs(2),
	RunE:  runCommitCheckout,
}

func init() {
	commitCmd.AddCommand(commitListCmd)
	commitCmd.AddCommand(commitCurrentCmd)
	commitCmd.AddCommand(commitCheckoutCmd)
	rootCmd.AddCommand(commitCmd)
}

// commitOutput is the JSON form of a commit, without the snapshot.
type commitOutput struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Current   bool   `json:"current"`
}

func newCommitOutput(c model.Commit, currentID string) commitOutput {
	return commitOutput{
		ID:        c.ID,
		Message:   c.Message,
		Version:   c.Version,
		Timestamp: output.FormatTime(c.Timestamp),
		Current:   c.ID == currentID,
	}
}

func runCommitList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, err := lookupProject(ctx, args[0]); err != nil {
		return err
	}

	commits := app.Versions.List(ctx, args[0])
	var currentID string
	if cur := app.Versions.Current(ctx, args[0]); cur != nil {
		currentID = cur.ID
	}

	if app.IsJSON() {
		out := make([]commitOutput, len(commits))
		for i, c := range commits {
			out[i] = newCommitOutput(c, currentID)
		}
		return app.Formatter.JSON(out)
	}
	app.CLIFormatter().PrintCommits(commits, currentID)
	return nil
}

func runCommitCurrent(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, err := lookupProject(ctx, args[0]); err != nil {
		return err
	}
	cur := app.Versions.Current(ctx, args[0])
	if cur == nil {
		return errors.NewUserErrorWithField("project", args[0], "project has no commits", "Run 'mindstore project save' to record one")
	}

	if app.IsJSON() {
		return app.Formatter.JSON(newCommitOutput(*cur, cur.ID))
	}
	cli := app.CLIFormatter()
	cli.KeyValue("commit", cur.ID)
	cli.KeyValue("version", cli.Version(cur.Version))
	cli.KeyValue("message", cur.Message)
	cli.KeyValue("time", output.FormatTime(cur.Timestamp))
	return nil
}

func runCommitCheckout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, err := lookupProject(ctx, args[0]); err != nil {
		return err
	}

	snapshot, err := app.Versions.Checkout(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if snapshot == nil {
		return errors.NewUserErrorWithField("commit", args[1], "commit not found", "Run 'mindstore commit list "+args[0]+"' to see commits")
	}

	restored, err := app.Projects.Update(ctx, snapshot)
	if err != nil {
		return err
	}
	if app.IsJSON() {
		return app.Formatter.JSON(restored)
	}
	cli := app.CLIFormatter()
	cli.Success("Restored " + cli.ProjectName(restored.Name) + " to " + cli.Version(restored.Version))
	return nil
}
