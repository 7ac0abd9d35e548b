package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/ledger"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var accountID uint
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an account's ledger as CSV",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			entries, err := a.ledger.Entries(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return ledger.Export(cmd.OutOrStdout(), entries)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := ledger.Export(f, entries); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}),
	}

	cmd.Flags().UintVar(&accountID, "account", 0, "account ID (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
