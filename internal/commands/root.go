package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/buildinfo"
	"github.com/cleared-dev/tally/internal/config"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Ledger with running balances, transfers and bank statement import",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "path to config file")

	rootCmd.AddCommand(
		newInitCommand(),
		newServeCommand(opts),
		newImportCommand(opts),
		newWatchCommand(opts),
		newTxnCommand(opts),
		newTransferCommand(opts),
		newAccountCommand(opts),
		newVerifyCommand(opts),
		newExportCommand(opts),
	)

	return rootCmd
}
