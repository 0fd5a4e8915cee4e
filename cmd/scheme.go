package cmd

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
	"github.com/manav03panchal/mindstore/internal/output"
)

// schemeCmd groups color scheme commands.
var schemeCmd = &cobra.Command{
	Use:     "scheme",
	Aliases: []string{"schemes", "colors"},
	Short:   "Manage node color schemes",
	Long: `Color schemes map node types (idea, topic, task, note, question) and
theme slots (background, text, edge, selection) to #RRGGBB colors.

Examples:
  mindstore scheme list
  mindstore scheme create Solar --color idea=#B58900 --color background=#FDF6E3
  mindstore scheme default dark`,
}

// Scheme flags.
var (
	schemeCreateFlagDescription string
	schemeCreateFlagFrom        string
	schemeCreateFlagColors      map[string]string
)

var schemeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List color schemes",
	Args:    cobra.NoArgs,
	RunE:    runSchemeList,
}

var schemeShowCmd = &cobra.Command{
	Use:               "show SCHEME_ID",
	Short:             "Show the colors of a scheme",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSchemes,
	RunE:              runSchemeShow,
}

var schemeCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a custom color scheme",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemeCreate,
}

var schemeDefaultCmd = &cobra.Command{
	Use:               "default SCHEME_ID",
	Short:             "Make a scheme the default",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSchemes,
	RunE:              runSchemeDefault,
}

var schemeDeleteCmd = &cobra.Command{
	Use:               "delete SCHEME_ID",
	Aliases:           []string{"rm"},
	Short:             "Delete a custom color scheme",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSchemes,
	RunE:              runSchemeDelete,
}

func init() {
	schemeCreateCmd.Flags().StringVarP(&schemeCreateFlagDescription, "description", "d", "", "Scheme description")
	schemeCreateCmd.Flags().StringVar(&schemeCreateFlagFrom, "from", model.ColorSchemeDefault, "Scheme to copy colors from")
	schemeCreateCmd.Flags().StringToStringVarP(&schemeCreateFlagColors, "color", "c", nil, "Color override as name=#RRGGBB (repeatable)")
	schemeCreateCmd.RegisterFlagCompletionFunc("from", completeSchemes)

	schemeCmd.AddCommand(schemeListCmd)
	schemeCmd.AddCommand(schemeShowCmd)
	schemeCmd.AddCommand(schemeCreateCmd)
	schemeCmd.AddCommand(schemeDefaultCmd)
	schemeCmd.AddCommand(schemeDeleteCmd)
	rootCmd.AddCommand(schemeCmd)
}

func schemeNotFound(id string) error {
	return errors.NewUserErrorWithField("scheme", id, "color scheme not found", "Run 'mindstore scheme list' to see scheme IDs")
}

func runSchemeList(cmd *cobra.Command, args []string) error {
	schemes := app.Colors.List(cmd.Context())
	if app.IsJSON() {
		if schemes == nil {
			schemes = []model.ColorScheme{}
		}
		return app.Formatter.JSON(schemes)
	}

	cli := app.CLIFormatter()
	rows := make([]output.TableRow, len(schemes))
	for i, s := range schemes {
		marker := ""
		if s.IsDefault {
			marker = "*"
		}
		rows[i] = output.TableRow{Columns: []string{
			marker,
			s.ID,
			s.Name,
			cli.Swatch(s.Color(model.NodeTypeIdea)) + cli.Swatch(s.Color(model.NodeTypeTopic)) + cli.Swatch(s.Color(model.NodeTypeTask)),
		}}
	}
	cli.PrintTable([]string{"", "ID", "NAME", "COLORS"}, rows)
	return nil
}

func runSchemeShow(cmd *cobra.Command, args []string) error {
	s := app.Colors.Get(cmd.Context(), args[0])
	if s == nil {
		return schemeNotFound(args[0])
	}
	if app.IsJSON() {
		return app.Formatter.JSON(s)
	}

	cli := app.CLIFormatter()
	cli.Title(s.Name)
	if s.Description != "" {
		cli.Muted(s.Description)
	}
	names := make([]string, 0, len(s.Colors))
	for name := range s.Colors {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cli.KeyValue(name, cli.Swatch(s.Colors[name])+" "+s.Colors[name])
	}
	return nil
}

func runSchemeCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	base := app.Colors.Get(ctx, schemeCreateFlagFrom)
	if base == nil {
		return schemeNotFound(schemeCreateFlagFrom)
	}

	colors := make(map[string]string, len(base.Colors)+len(schemeCreateFlagColors))
	for k, v := range base.Colors {
		colors[k] = v
	}
	for k, v := range schemeCreateFlagColors {
		colors[k] = v
	}

	s := &model.ColorScheme{Name: args[0], Description: schemeCreateFlagDescription, Colors: colors}
	if err := app.Colors.Save(ctx, s); err != nil {
		return err
	}
	if app.IsJSON() {
		return app.Formatter.JSON(s)
	}
	cli := app.CLIFormatter()
	cli.Success("Created scheme " + s.Name)
	cli.KeyValue("id", s.ID)
	return nil
}

func runSchemeDefault(cmd *cobra.Command, args []string) error {
	if err := app.Colors.SetDefault(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return schemeNotFound(args[0])
		}
		return err
	}
	if app.IsJSON() {
		return app.JSONFormatter().PrintResult("default", args[0], 1)
	}
	app.CLIFormatter().Success("Default scheme is now " + args[0])
	return nil
}

func runSchemeDelete(cmd *cobra.Command, args []string) error {
	if err := app.Colors.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	if app.IsJSON() {
		return app.JSONFormatter().PrintResult("deleted", args[0], 1)
	}
	app.CLIFormatter().Success("Deleted scheme " + args[0])
	return nil
}
