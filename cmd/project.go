package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
	"github.com/manav03panchal/mindstore/internal/output"
	"github.com/manav03panchal/mindstore/internal/project"
	"github.com/manav03panchal/mindstore/internal/validate"
)

// projectCmd represents the project command.
var projectCmd = &cobra.Command{
	Use:     "project [PROJECT_ID]",
	Aliases: []string{"projects", "proj", "pj"},
	Short:   "Manage projects",
	Long: `List all projects, show details for a specific project, or manage projects.

Examples:
  mindstore project
  mindstore project 0193a5c2-...
  mindstore project create "Roadmap" --template mindmap
  mindstore project update 0193a5c2-... --name "Roadmap 2026" --tag planning`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeProjects,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return showProject(cmd.Context(), args[0])
		}
		return runProjectList(cmd, args)
	},
}

// Project subcommand flags.
var (
	projectCreateFlagDescription string
	projectCreateFlagTemplate    string

	projectListFlagArchived  bool
	projectListFlagAll       bool
	projectListFlagTemplates bool
	projectListFlagTag       string
	projectListFlagRecent    int

	projectHistoryFlagAction string

	projectUpdateFlagName        string
	projectUpdateFlagDescription string
	projectUpdateFlagAddTags     []string
	projectUpdateFlagRemoveTags  []string
	projectUpdateFlagSync        string
	projectUpdateFlagInterval    int

	projectExportFlagAs     string
	projectExportFlagOutput string

	projectSaveFlagMessage string
	projectSaveFlagFile    string

	projectTemplateFlagName string
)

var projectCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	Args:    cobra.NoArgs,
	RunE:    runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:               "show PROJECT_ID",
	Short:             "Show a project",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showProject(cmd.Context(), args[0])
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:               "update PROJECT_ID",
	Aliases:           []string{"edit"},
	Short:             "Update project metadata",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runProjectUpdate,
}

var projectDeleteCmd = &cobra.Command{
	Use:               "delete PROJECT_ID",
	Aliases:           []string{"rm"},
	Short:             "Delete a project and its version history",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runProjectDelete,
}

var projectArchiveCmd = &cobra.Command{
	Use:               "archive PROJECT_ID",
	Short:             "Archive a project",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProjectArchive(cmd.Context(), args[0], true)
	},
}

var projectUnarchiveCmd = &cobra.Command{
	Use:               "unarchive PROJECT_ID",
	Short:             "Restore an archived project",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProjectArchive(cmd.Context(), args[0], false)
	},
}

var projectHistoryCmd = &cobra.Command{
	Use:   "history [PROJECT_ID]",
	Short: "Show the activity history of a project",
	Long: `Show the activity history of a project. With --action only entries of
that kind are shown, and the project ID may be omitted to search all projects.

Examples:
  mindstore project history 0193a5c2-...
  mindstore project history --action save`,
	Args:              cobra.RangeArgs(0, 1),
	ValidArgsFunction: completeProjects,
	RunE:              runProjectHistory,
}

var projectExportCmd = &cobra.Command{
	Use:   "export PROJECT_ID",
	Short: "Export a project as JSON or YAML",
	Long: `Export a project document.

Examples:
  mindstore project export 0193a5c2-...
  mindstore project export 0193a5c2-... --as yaml -o roadmap.yaml`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runProjectExport,
}

var projectSaveCmd = &cobra.Command{
	Use:   "save PROJECT_ID",
	Short: "Save the project and record a new version",
	Long: `Save a project and commit a new version. With --file the nodes and edges
are replaced by those in the given JSON document first.

Examples:
  mindstore project save 0193a5c2-... -m "add milestones"
  mindstore project save 0193a5c2-... --file roadmap.json`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runProjectSave,
}

var projectTemplateCmd = &cobra.Command{
	Use:               "template PROJECT_ID",
	Short:             "Save a project as a reusable template",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runProjectTemplate,
}

var projectTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List templates usable with create --template",
	Args:  cobra.NoArgs,
	RunE:  runProjectTemplates,
}

func init() {
	projectCreateCmd.Flags().StringVarP(&projectCreateFlagDescription, "description", "d", "", "Project description")
	projectCreateCmd.Flags().StringVarP(&projectCreateFlagTemplate, "template", "t", "", "Template name or saved template ID (default: blank)")
	projectCreateCmd.RegisterFlagCompletionFunc("template", completeTemplates)

	projectListCmd.Flags().BoolVar(&projectListFlagArchived, "archived", false, "Only archived projects")
	projectListCmd.Flags().BoolVarP(&projectListFlagAll, "all", "a", false, "Include archived projects")
	projectListCmd.Flags().BoolVar(&projectListFlagTemplates, "templates", false, "Include saved templates")
	projectListCmd.Flags().StringVar(&projectListFlagTag, "tag", "", "Only projects with this tag")
	projectListCmd.Flags().IntVar(&projectListFlagRecent, "recent", 0, "Only the N most recently opened projects")

	projectHistoryCmd.Flags().StringVar(&projectHistoryFlagAction, "action", "", "Only entries with this action: "+joinActions())

	projectUpdateCmd.Flags().StringVarP(&projectUpdateFlagName, "name", "n", "", "New name")
	projectUpdateCmd.Flags().StringVarP(&projectUpdateFlagDescription, "description", "d", "", "New description")
	projectUpdateCmd.Flags().StringSliceVar(&projectUpdateFlagAddTags, "tag", nil, "Add a tag (repeatable)")
	projectUpdateCmd.Flags().StringSliceVar(&projectUpdateFlagRemoveTags, "untag", nil, "Remove a tag (repeatable)")
	projectUpdateCmd.Flags().StringVar(&projectUpdateFlagSync, "sync", "", "Sync frequency: manual, on_save, interval, off")
	projectUpdateCmd.Flags().IntVar(&projectUpdateFlagInterval, "sync-interval", 0, "Minutes between syncs with --sync interval")

	projectExportCmd.Flags().StringVar(&projectExportFlagAs, "as", project.FormatJSON, "Export format: json, yaml")
	projectExportCmd.Flags().StringVarP(&projectExportFlagOutput, "output", "o", "", "Write to a file, or into a directory, instead of stdout")

	projectSaveCmd.Flags().StringVarP(&projectSaveFlagMessage, "message", "m", "", "Commit message")
	projectSaveCmd.Flags().StringVar(&projectSaveFlagFile, "file", "", "JSON document with nodes and edges")

	projectTemplateCmd.Flags().StringVarP(&projectTemplateFlagName, "name", "n", "", "Template name")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(projectArchiveCmd)
	projectCmd.AddCommand(projectUnarchiveCmd)
	projectCmd.AddCommand(projectHistoryCmd)
	projectCmd.AddCommand(projectExportCmd)
	projectCmd.AddCommand(projectSaveCmd)
	projectCmd.AddCommand(projectTemplateCmd)
	projectCmd.AddCommand(projectTemplatesCmd)
	rootCmd.AddCommand(projectCmd)
}

// projectNotFound is returned when a command names an unknown project.
func projectNotFound(id string) error {
	return errors.NewUserErrorWithField("project", id, "project not found", "Run 'mindstore project list' to see project IDs")
}

// lookupProject loads a project without recording a view.
func lookupProject(ctx context.Context, id string) (*model.Project, error) {
	p := app.ProjectRepo.Get(ctx, id)
	if p == nil {
		return nil, projectNotFound(id)
	}
	return p, nil
}

func printProject(p *model.Project) error {
	if app.IsJSON() {
		return app.Formatter.JSON(p)
	}
	app.CLIFormatter().PrintProject(p, app.Now())
	return nil
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	name := validate.SanitizeName(args[0])
	if err := validate.ProjectName(name); err != nil {
		return err
	}
	desc := validate.SanitizeDescription(projectCreateFlagDescription)
	if err := validate.Description(desc); err != nil {
		return err
	}

	p, err := app.Projects.Create(cmd.Context(), name, desc, projectCreateFlagTemplate)
	if err != nil {
		return err
	}
	if app.IsJSON() {
		return app.Formatter.JSON(p)
	}
	cli := app.CLIFormatter()
	cli.Success(fmt.Sprintf("Created %s %s", cli.ProjectName(p.Name), cli.Version(p.Version)))
	cli.KeyValue("id", p.ID)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	if projectListFlagRecent < 0 {
		return errors.NewUserErrorWithField("recent", fmt.Sprint(projectListFlagRecent), "must not be negative", "")
	}
	projects := app.Projects.List(cmd.Context(), project.ListOptions{
		IncludeArchived:  projectListFlagAll,
		OnlyArchived:     projectListFlagArchived,
		IncludeTemplates: projectListFlagTemplates,
		Tag:              projectListFlagTag,
		Recent:           projectListFlagRecent,
	})

	if app.IsJSON() {
		return app.JSONFormatter().PrintProjects(projects)
	}
	app.CLIFormatter().PrintProjects(projects, app.Now())
	return nil
}

func showProject(ctx context.Context, id string) error {
	p := app.Projects.Get(ctx, id)
	if p == nil {
		return projectNotFound(id)
	}
	return printProject(p)
}

func runProjectUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := lookupProject(ctx, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = validate.SanitizeName(projectUpdateFlagName)
		if err := validate.ProjectName(p.Name); err != nil {
			return err
		}
	}
	if flags.Changed("description") {
		p.Description = validate.SanitizeDescription(projectUpdateFlagDescription)
		if err := validate.Description(p.Description); err != nil {
			return err
		}
	}
	for _, tag := range projectUpdateFlagAddTags {
		tag = validate.SanitizeTag(tag)
		if err := validate.Tag(tag); err != nil {
			return err
		}
		if !p.HasTag(tag) {
			p.Tags = append(p.Tags, tag)
		}
	}
	if len(projectUpdateFlagRemoveTags) > 0 {
		p.Tags = slices.DeleteFunc(p.Tags, func(tag string) bool {
			return slices.ContainsFunc(projectUpdateFlagRemoveTags, func(r string) bool {
				return strings.EqualFold(validate.SanitizeTag(r), tag)
			})
		})
	}
	if flags.Changed("sync") {
		if err := applySyncFlag(p); err != nil {
			return err
		}
	}

	updated, err := app.Projects.Update(ctx, p)
	if err != nil {
		return err
	}
	if app.IsJSON() {
		return app.Formatter.JSON(updated)
	}
	app.CLIFormatter().Success("Updated " + updated.Name)
	return nil
}

func applySyncFlag(p *model.Project) error {
	switch projectUpdateFlagSync {
	case "off":
		p.SyncSettings.EnableS3Sync = false
		p.SyncSettings.SyncFrequency = model.SyncManual
	case model.SyncManual, model.SyncOnSave:
		p.SyncSettings.EnableS3Sync = true
		p.SyncSettings.SyncFrequency = projectUpdateFlagSync
	case model.SyncInterval:
		if projectUpdateFlagInterval <= 0 {
			return errors.NewUserErrorWithField("sync-interval", fmt.Sprint(projectUpdateFlagInterval),
				"interval sync needs a positive interval", "Pass --sync-interval MINUTES")
		}
		p.SyncSettings.EnableS3Sync = true
		p.SyncSettings.SyncFrequency = model.SyncInterval
		p.SyncSettings.IntervalMinutes = projectUpdateFlagInterval
	default:
		return errors.NewUserErrorWithField("sync", projectUpdateFlagSync,
			"unknown sync frequency", "Use manual, on_save, interval or off")
	}
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	if err := app.Projects.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return projectNotFound(args[0])
		}
		return err
	}
	if app.IsJSON() {
		return app.JSONFormatter().PrintResult("deleted", args[0], 1)
	}
	app.CLIFormatter().Success("Deleted " + args[0])
	return nil
}

func runProjectArchive(ctx context.Context, id string, archive bool) error {
	p, err := app.Projects.Archive(ctx, id, archive)
	if err != nil {
		return err
	}
	if p == nil {
		return projectNotFound(id)
	}
	if app.IsJSON() {
		return app.Formatter.JSON(p)
	}
	if archive {
		app.CLIFormatter().Success("Archived " + p.Name)
	} else {
		app.CLIFormatter().Success("Restored " + p.Name)
	}
	return nil
}

func runProjectHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var id string
	if len(args) > 0 {
		id = args[0]
		if _, err := lookupProject(ctx, id); err != nil {
			return err
		}
	}

	var entries []model.ProjectHistoryEntry
	switch {
	case projectHistoryFlagAction != "":
		action := model.HistoryAction(strings.ToLower(projectHistoryFlagAction))
		if !action.Valid() {
			return errors.NewUserErrorWithField("action", projectHistoryFlagAction, "unknown action", "Use one of: "+joinActions())
		}
		entries = app.Projects.HistoryByAction(ctx, id, action)
	case id == "":
		return errors.NewUserError("project ID required", "Pass a project ID or --action")
	default:
		entries = app.Projects.History(ctx, id)
	}

	if app.IsJSON() {
		if entries == nil {
			entries = []model.ProjectHistoryEntry{}
		}
		return app.Formatter.JSON(entries)
	}
	app.CLIFormatter().PrintHistory(entries)
	return nil
}

func joinActions() string {
	names := make([]string, len(model.HistoryActions))
	for i, a := range model.HistoryActions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func runProjectExport(cmd *cobra.Command, args []string) error {
	data, err := app.Projects.Export(cmd.Context(), args[0], projectExportFlagAs)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return projectNotFound(args[0])
		}
		return err
	}
	if projectExportFlagOutput == "" {
		return app.Formatter.Write(data)
	}
	path := projectExportFlagOutput
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		name := args[0]
		if p := app.ProjectRepo.Get(cmd.Context(), args[0]); p != nil {
			name = p.Name
		}
		path = filepath.Join(path, validate.SafeFilename(name)+"."+exportExtension(projectExportFlagAs))
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.NewSystemErrorWithOp("export", "failed to write export file", err)
	}
	if app.IsJSON() {
		return app.JSONFormatter().PrintResult("exported", path, 1)
	}
	app.CLIFormatter().Success("Exported to " + path)
	return nil
}

func exportExtension(format string) string {
	switch strings.ToLower(format) {
	case project.FormatYAML, "yml":
		return "yaml"
	default:
		return "json"
	}
}

// graphDocument is the --file input of project save.
type graphDocument struct {
	Nodes []model.Node `json:"nodes"`
	Edges []model.Edge `json:"edges"`
}

func runProjectSave(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := lookupProject(ctx, args[0])
	if err != nil {
		return err
	}

	if projectSaveFlagFile != "" {
		raw, err := os.ReadFile(projectSaveFlagFile)
		if err != nil {
			return errors.NewUserErrorWithField("file", projectSaveFlagFile, "cannot read graph file", "Check the path and permissions")
		}
		var doc graphDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return errors.NewUserErrorWithField("file", projectSaveFlagFile, "graph file is not valid JSON", `Expected {"nodes": [...], "edges": [...]}`)
		}
		p.Nodes, p.Edges = doc.Nodes, doc.Edges
	}

	saved, err := app.Projects.Save(ctx, p, projectSaveFlagMessage)
	if err != nil {
		return err
	}

	var push string
	if saved.SyncSettings.EnableS3Sync && saved.SyncSettings.SyncFrequency == model.SyncOnSave && app.Syncer.Enabled() {
		res, err := app.Syncer.Push(ctx, saved)
		if err != nil {
			return err
		}
		push = "uploaded"
		if res.Queued() {
			push = "queued for upload"
		}
	}

	if app.IsJSON() {
		return app.Formatter.JSON(saved)
	}
	cli := app.CLIFormatter()
	cli.Success(fmt.Sprintf("Saved %s %s", cli.ProjectName(saved.Name), cli.Version(saved.Version)))
	if push != "" {
		cli.Muted("  " + push)
	}
	return nil
}

func runProjectTemplate(cmd *cobra.Command, args []string) error {
	tpl, err := app.Projects.SaveAsTemplate(cmd.Context(), args[0], projectTemplateFlagName)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return projectNotFound(args[0])
		}
		return err
	}
	if app.IsJSON() {
		return app.Formatter.JSON(tpl)
	}
	cli := app.CLIFormatter()
	cli.Success("Saved template " + cli.ProjectName(tpl.Name))
	cli.KeyValue("id", tpl.ID)
	return nil
}

// templateOutput is the JSON form of a template.
type templateOutput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func runProjectTemplates(cmd *cobra.Command, args []string) error {
	templates := app.Projects.Templates(cmd.Context())

	if app.IsJSON() {
		out := make([]templateOutput, len(templates))
		for i, t := range templates {
			out[i] = templateOutput{Name: t.Name, Description: t.Description}
		}
		return app.Formatter.JSON(out)
	}

	rows := make([]output.TableRow, len(templates))
	for i, t := range templates {
		rows[i] = output.TableRow{Columns: []string{t.Name, t.Description}}
	}
	app.CLIFormatter().PrintTable([]string{"TEMPLATE", "DESCRIPTION"}, rows)
	return nil
}
