package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/project"
)

// completeProjects completes the first argument with project IDs.
func completeProjects(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || app == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, p := range app.Projects.List(completionContext(cmd), project.ListOptions{IncludeArchived: true}) {
		if strings.HasPrefix(p.ID, toComplete) {
			completions = append(completions, p.ID+"\t"+p.Name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeTemplates completes --template values.
func completeTemplates(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if app == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, t := range app.Projects.Templates(completionContext(cmd)) {
		if strings.HasPrefix(t.Name, toComplete) {
			completions = append(completions, t.Name+"\t"+t.Description)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeSchemes completes color scheme IDs.
func completeSchemes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || app == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, s := range app.Colors.List(completionContext(cmd)) {
		if strings.HasPrefix(s.ID, toComplete) {
			completions = append(completions, s.ID+"\t"+s.Name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeSecrets completes stored secret keys.
func completeSecrets(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || app == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, k := range app.Secrets.Keys(completionContext(cmd)) {
		if strings.HasPrefix(k, toComplete) {
			completions = append(completions, k)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func completionContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
