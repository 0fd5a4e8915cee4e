package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
)

// prefsCmd groups node preference commands.
var prefsCmd = &cobra.Command{
	Use:     "prefs",
	Aliases: []string{"preferences"},
	Short:   "Show and change node rendering preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show node preferences",
	Args:  cobra.NoArgs,
	RunE:  runPrefsShow,
}

var prefsSetSizeCmd = &cobra.Command{
	Use:       "set-size small|medium|large",
	Short:     "Set the default node size",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"small", "medium", "large"},
	RunE:      runPrefsSetSize,
}

var prefsSetColorCmd = &cobra.Command{
	Use:   "set-color NODE_TYPE [#RRGGBB]",
	Short: "Override the color of a node type (omit the color to clear it)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPrefsSetColor,
}

var prefsSetSchemeCmd = &cobra.Command{
	Use:               "set-scheme SCHEME_ID",
	Short:             "Set the color scheme new projects render with",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSchemes,
	RunE:              runPrefsSetScheme,
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetSizeCmd)
	prefsCmd.AddCommand(prefsSetColorCmd)
	prefsCmd.AddCommand(prefsSetSchemeCmd)
	rootCmd.AddCommand(prefsCmd)
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p := app.Preferences.Get(ctx)
	if p == nil {
		return errors.NewSystemError("preferences are unavailable", errors.ErrUnavailable)
	}
	if app.IsJSON() {
		return app.Formatter.JSON(p)
	}

	cli := app.CLIFormatter()
	cli.Title("Node preferences")
	cli.KeyValue("size", p.DefaultSize)
	cli.KeyValue("scheme", p.DefaultColorScheme)
	cli.KeyValue("touch", p.TouchOptimized)
	for _, s := range model.Sizes() {
		spec := p.SizeSpec(s)
		cli.KeyValue(s.String(), fmt.Sprintf("%dpx, font %d", spec.Width, spec.FontSize))
	}

	scheme := app.Colors.Get(ctx, p.DefaultColorScheme)
	if scheme == nil {
		scheme = app.Colors.Default(ctx)
	}
	if scheme != nil {
		for _, nt := range []string{model.NodeTypeIdea, model.NodeTypeTopic, model.NodeTypeTask, model.NodeTypeNote, model.NodeTypeQuestion} {
			color := p.ColorFor(nt, scheme)
			cli.KeyValue(nt, cli.Swatch(color)+" "+color)
		}
	}
	return nil
}

func runPrefsSetSize(cmd *cobra.Command, args []string) error {
	size, err := model.ParseSize(args[0])
	if err != nil {
		return errors.NewUserErrorWithField("size", args[0], err.Error(), "")
	}
	p, err := app.Preferences.SetDefaultSize(cmd.Context(), size)
	if err != nil {
		return err
	}
	if app.IsJSON() {
		return app.Formatter.JSON(p)
	}
	app.CLIFormatter().Success("Default node size is now " + size.String())
	return nil
}

func runPrefsSetColor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p := app.Preferences.Get(ctx)
	if p == nil {
		return errors.NewSystemError("preferences are unavailable", errors.ErrUnavailable)
	}

	nodeType := args[0]
	if len(args) == 1 {
		delete(p.CustomColors, nodeType)
	} else {
		if !model.ValidateColor(args[1]) {
			return errors.NewUserErrorWithField(nodeType, args[1], "invalid color", "Use #RRGGBB hex colors")
		}
		if p.CustomColors == nil {
			p.CustomColors = make(map[string]string)
		}
		p.CustomColors[nodeType] = args[1]
	}

	if err := app.Preferences.Update(ctx, p); err != nil {
		return err
	}
	if app.IsJSON() {
		return app.Formatter.JSON(p)
	}
	if len(args) == 1 {
		app.CLIFormatter().Success("Cleared color override for " + nodeType)
	} else {
		app.CLIFormatter().Success("Color for " + nodeType + " is now " + args[1])
	}
	return nil
}

func runPrefsSetScheme(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if app.Colors.Get(ctx, args[0]) == nil {
		return schemeNotFound(args[0])
	}
	p := app.Preferences.Get(ctx)
	if p == nil {
		return errors.NewSystemError("preferences are unavailable", errors.ErrUnavailable)
	}
	p.DefaultColorScheme = args[0]
	if err := app.Preferences.Update(ctx, p); err != nil {
		return err
	}
	if app.IsJSON() {
		return app.Formatter.JSON(p)
	}
	app.CLIFormatter().Success("Rendering scheme is now " + args[0])
	return nil
}
