package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/transfer"
)

func newTransferCommand(opts *rootOptions) *cobra.Command {
	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfers between accounts",
	}
	transferCmd.AddCommand(
		newTransferCreateCommand(opts),
		newTransferUpdateCommand(opts),
		newTransferReverseCommand(opts),
		newTransferShowCommand(opts),
	)
	return transferCmd
}

type transferFlags struct {
	from, to    uint
	value       string
	description string
	date        string
}

func (f *transferFlags) register(cmd *cobra.Command) {
	cmd.Flags().UintVar(&f.from, "from", 0, "source account ID (required)")
	cmd.Flags().UintVar(&f.to, "to", 0, "target account ID (required)")
	cmd.Flags().StringVar(&f.value, "value", "", "positive amount to move (required)")
	cmd.Flags().StringVar(&f.description, "desc", "", "description")
	cmd.Flags().StringVar(&f.date, "date", "", "date as YYYY-MM-DD")
	for _, name := range []string{"from", "to", "value"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (f *transferFlags) params() (transfer.Params, error) {
	value, err := decimal.NewFromString(f.value)
	if err != nil {
		return transfer.Params{}, fmt.Errorf("parsing value %q: %w", f.value, err)
	}
	p := transfer.Params{Source: f.from, Target: f.to, Value: value, Description: f.description}
	if f.date != "" {
		if p.Date, err = time.Parse(dateFormat, f.date); err != nil {
			return transfer.Params{}, fmt.Errorf("parsing date %q: %w", f.date, err)
		}
	}
	return p, nil
}

func newTransferCreateCommand(opts *rootOptions) *cobra.Command {
	var f transferFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Move value from one account to another",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			id, err := a.transfers.Create(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created transfer %s\n", id)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newTransferUpdateCommand(opts *rootOptions) *cobra.Command {
	var f transferFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a transfer's accounts, value or description",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			if err := a.transfers.Update(cmd.Context(), args[0], p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated transfer %s\n", args[0])
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newTransferReverseCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reverse <id>",
		Short: "Remove both legs of a transfer",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if err := a.transfers.Reverse(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reversed transfer %s\n", args[0])
			return nil
		}),
	}
}

func newTransferShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a transfer and its legs",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			tr, err := a.transfers.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transfer %s: %s from account %d to account %d\n",
				tr.ID, tr.Value.StringFixed(2), tr.SourceAccountID, tr.TargetAccountID)
			if tr.Description != "" {
				fmt.Fprintf(out, "  %s\n", tr.Description)
			}
			fmt.Fprintf(out, "  debit  #%d balance %s\n", tr.Debit.ID, tr.Debit.Balance.StringFixed(2))
			fmt.Fprintf(out, "  credit #%d balance %s\n", tr.Credit.ID, tr.Credit.Balance.StringFixed(2))
			return nil
		}),
	}
}
