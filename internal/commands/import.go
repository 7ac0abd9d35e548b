package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var accountID uint
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bank statement into an account",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading statement: %w", err)
			}
			rec, err := a.reconciler(format)
			if err != nil {
				return err
			}
			res, err := rec.Import(cmd.Context(), accountID, raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rows: %d, created: %d, duplicates: %d, skipped: %d\n",
				res.Rows, res.Created, res.Duplicates, res.Skipped)
			return nil
		}),
	}

	cmd.Flags().UintVar(&accountID, "account", 0, "account ID (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&format, "format", "", "statement format (default from config)")
	return cmd
}
