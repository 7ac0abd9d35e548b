package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	var accountID uint
	var file string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check running balances and sequence order",
		Long: "Check running balances and sequence order of the stored ledger, or of a\n" +
			"ledger CSV written by `tally export` when --file is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				errs, err := verifyFile(file)
				if err != nil {
					return err
				}
				return reportViolations(cmd, errs)
			}
			return withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
				var (
					errs []ledger.VerifyError
					err  error
				)
				if accountID != 0 {
					errs, err = a.ledger.Verify(cmd.Context(), accountID)
				} else {
					errs, err = a.ledger.VerifyAll(cmd.Context())
				}
				if err != nil {
					return err
				}
				return reportViolations(cmd, errs)
			})(cmd, args)
		},
	}

	cmd.Flags().UintVar(&accountID, "account", 0, "check only this account")
	cmd.Flags().StringVar(&file, "file", "", "check an exported ledger CSV instead of the database")
	return cmd
}

// verifyFile checks an exported ledger, one account at a time in file order.
func verifyFile(path string) ([]ledger.VerifyError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ledger.ReadEntries(f)
	if err != nil {
		return nil, err
	}

	var order []uint
	byAccount := make(map[uint][]model.Transaction)
	for _, e := range entries {
		if _, ok := byAccount[e.AccountID]; !ok {
			order = append(order, e.AccountID)
		}
		byAccount[e.AccountID] = append(byAccount[e.AccountID], e)
	}

	var errs []ledger.VerifyError
	for _, id := range order {
		errs = append(errs, ledger.CheckEntries(id, byAccount[id])...)
	}
	return errs, nil
}

func reportViolations(cmd *cobra.Command, errs []ledger.VerifyError) error {
	out := cmd.OutOrStdout()
	if len(errs) == 0 {
		fmt.Fprintln(out, "Ledger is consistent")
		return nil
	}
	for _, e := range errs {
		fmt.Fprintln(out, e.Error())
	}
	return fmt.Errorf("%d violations found", len(errs))
}
