package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/mindstore/internal/errors"
)

// secretCmd groups encrypted secret commands.
var secretCmd = &cobra.Command{
	Use:     "secret",
	Aliases: []string{"secrets"},
	Short:   "Store encrypted values such as API keys",
	Long: `Values are encrypted with a key derived from your passphrase. Supply it
with --passphrase, MINDSTORE_PASSPHRASE, or at the prompt.

Examples:
  mindstore secret set s3_secret_key
  mindstore secret get s3_secret_key
  mindstore secret list`,
}

var secretSetCmd = &cobra.Command{
	Use:   "set KEY [VALUE]",
	Short: "Encrypt and store a value (prompts when VALUE is omitted)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSecretSet,
}

var secretGetCmd = &cobra.Command{
	Use:               "get KEY",
	Short:             "Decrypt and print a value",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSecrets,
	RunE:              runSecretGet,
}

var secretDeleteCmd = &cobra.Command{
	Use:               "delete KEY",
	Aliases:           []string{"rm"},
	Short:             "Delete a stored value",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSecrets,
	RunE:              runSecretDelete,
}

var secretListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored keys",
	Args:    cobra.NoArgs,
	RunE:    runSecretList,
}

func init() {
	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretGetCmd)
	secretCmd.AddCommand(secretDeleteCmd)
	secretCmd.AddCommand(secretListCmd)
	rootCmd.AddCommand(secretCmd)
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	if err := ensurePassphrase(); err != nil {
		return err
	}

	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		var err error
		if value, err = readSecret("Value for " + args[0] + ": "); err != nil {
			return err
		}
	}

	if err := app.Secrets.Store(cmd.Context(), args[0], value); err != nil {
		return err
	}
	if app.IsJSON() {
		return app.JSONFormatter().PrintResult("stored", args[0], 1)
	}
	app.CLIFormatter().Success("Stored " + args[0])
	return nil
}

func runSecretGet(cmd *cobra.Command, args []string) error {
	if err := ensurePassphrase(); err != nil {
		return err
	}

	var value string
	found, err := app.Secrets.Retrieve(cmd.Context(), args[0], &value)
	if err != nil {
		return err
	}
	if !found {
		return errors.NewUserErrorWithField("key", args[0], "secret not found", "Run 'mindstore secret list' to see stored keys")
	}

	if app.IsJSON() {
		return app.Formatter.JSON(map[string]string{"key": args[0], "value": value})
	}
	app.Formatter.Println(value)
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	if err := app.Secrets.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	if app.IsJSON() {
		return app.JSONFormatter().PrintResult("deleted", args[0], 1)
	}
	app.CLIFormatter().Success("Deleted " + args[0])
	return nil
}

func runSecretList(cmd *cobra.Command, args []string) error {
	keys := app.Secrets.Keys(cmd.Context())
	if app.IsJSON() {
		if keys == nil {
			keys = []string{}
		}
		return app.Formatter.JSON(keys)
	}
	cli := app.CLIFormatter()
	if len(keys) == 0 {
		cli.Muted("No secrets stored.")
		return nil
	}
	for _, k := range keys {
		app.Formatter.Println(k)
	}
	return nil
}
