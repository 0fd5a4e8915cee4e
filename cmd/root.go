// Package cmd provides the CLI commands for mindstore.
//
// This software is a derivative work based on Zeit (https://github.com/mrusme/zeit)
// Original work copyright (c) マリウス (mrusme)
// Modifications copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/config"
	"github.com/manav03panchal/mindstore/internal/output"
	"github.com/manav03panchal/mindstore/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat     string
	flagColor      string
	flagDebug      bool
	flagDB         string
	flagPassphrase string
	flagEnvFile    string
)

// app is the shared runtime context.
var app *runtime.Context

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mindstore",
	Short: "Local-first storage for mind-map projects",
	Long: `Mindstore keeps mind-map projects, their version history, color schemes
and encrypted secrets in a local database, with an offline queue for
remote sync.

Examples:
  mindstore project create "Roadmap" --template mindmap
  mindstore project list --tag work
  mindstore project save 0193... -m "add milestones"
  mindstore commit list 0193...
  mindstore sync push 0193...
  mindstore logs clear --before "last month"`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for commands that never touch storage.
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}

		if err := config.Global.Load(flagEnvFile); err != nil {
			return err
		}

		format, err := output.ParseFormat(flagFormat)
		if err != nil {
			return err
		}

		opts := runtime.DefaultOptions()
		opts.Format = format
		opts.ColorMode = parseColorMode(flagColor)
		opts.Debug = flagDebug
		opts.DBPath = flagDB
		opts.Passphrase = flagPassphrase

		app, err = runtime.New(cmd.Context(), opts)
		if err != nil {
			return err
		}
		app.Formatter.Writer = cmd.OutOrStdout()
		app.Debugf("storage mode: %s", app.Gateway.Mode())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
	RunE: runStatus,
}

func parseColorMode(s string) output.ColorMode {
	switch s {
	case "always":
		return output.ColorAlways
	case "never":
		return output.ColorNever
	default:
		return output.ColorAuto
	}
}

func closeApp() error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	return err
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return runtime.ExitOK
	}
	if app != nil {
		app.ReportError(err)
		closeApp()
	} else {
		rootCmd.PrintErrln("Error: " + runtime.FormatError(err))
	}
	return runtime.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "",
		"Database directory, or :memory: for a throwaway store")
	rootCmd.PersistentFlags().StringVar(&flagPassphrase, "passphrase", "",
		"Secure store passphrase (prefer "+runtime.PassphraseEnv+")")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env",
		"Load MINDSTORE_* settings from this file if it exists")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("mindstore %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
		cmd.Println("")
		cmd.Println("Based on Zeit (https://github.com/mrusme/zeit)")
		cmd.Println("Licensed under SEGV License v1.0")
	},
}
