package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

const dateFormat = "2006-01-02"

func newTxnCommand(opts *rootOptions) *cobra.Command {
	txnCmd := &cobra.Command{
		Use:   "txn",
		Short: "Ledger entries",
	}
	txnCmd.AddCommand(
		newTxnAddCommand(opts),
		newTxnAmendCommand(opts),
		newTxnRmCommand(opts),
		newTxnLsCommand(opts),
	)
	return txnCmd
}

// entryFlags are shared by add and amend.
type entryFlags struct {
	accountID   uint
	amount      string
	description string
	recipient   string
	date        string
}

func (f *entryFlags) register(cmd *cobra.Command, accountHelp string) {
	cmd.Flags().UintVar(&f.accountID, "account", 0, accountHelp)
	cmd.Flags().StringVar(&f.amount, "amount", "", "signed amount, e.g. -120.50 (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&f.description, "desc", "", "description")
	cmd.Flags().StringVar(&f.recipient, "recipient", "", "recipient")
	cmd.Flags().StringVar(&f.date, "date", "", "date as YYYY-MM-DD")
}

func (f *entryFlags) parse() (decimal.Decimal, time.Time, error) {
	amount, err := decimal.NewFromString(f.amount)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("parsing amount %q: %w", f.amount, err)
	}
	var date time.Time
	if f.date != "" {
		date, err = time.Parse(dateFormat, f.date)
		if err != nil {
			return decimal.Zero, time.Time{}, fmt.Errorf("parsing date %q: %w", f.date, err)
		}
	}
	return amount, date, nil
}

func newTxnAddCommand(opts *rootOptions) *cobra.Command {
	var f entryFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append an entry to an account's ledger",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			amount, date, err := f.parse()
			if err != nil {
				return err
			}
			txn, err := a.ledger.Append(cmd.Context(), ledger.AppendParams{
				AccountID:   f.accountID,
				Amount:      amount,
				Description: f.description,
				Recipient:   f.recipient,
				Date:        date,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added transaction %d, balance %s\n", txn.ID, txn.Balance.StringFixed(2))
			return nil
		}),
	}

	f.register(cmd, "account ID (required)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newTxnAmendCommand(opts *rootOptions) *cobra.Command {
	var f entryFlags

	cmd := &cobra.Command{
		Use:   "amend <id>",
		Short: "Change an entry and recompute later balances",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, date, err := f.parse()
			if err != nil {
				return err
			}
			txn, err := a.ledger.Amend(cmd.Context(), ledger.AmendParams{
				ID:          id,
				Amount:      amount,
				AccountID:   f.accountID,
				Description: f.description,
				Recipient:   f.recipient,
				Date:        date,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Amended transaction %d, balance %s\n", txn.ID, txn.Balance.StringFixed(2))
			return nil
		}),
	}

	f.register(cmd, "move the entry to this account")
	return cmd
}

func newTxnRmCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an entry and recompute later balances",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.ledger.Remove(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed transaction %d\n", id)
			return nil
		}),
	}
}

func newTxnLsCommand(opts *rootOptions) *cobra.Command {
	var accountID uint

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List an account's ledger",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			entries, err := a.ledger.Entries(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), entries)
		}),
	}

	cmd.Flags().UintVar(&accountID, "account", 0, "account ID (required)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func printEntries(w io.Writer, entries []model.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tBALANCE\tDESCRIPTION\t")
	for _, e := range entries {
		desc := e.Description
		if e.IsLeg() {
			desc += " [transfer " + e.TransferID + "]"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
			e.ID, e.Date.Format(dateFormat), e.Amount.StringFixed(2), e.Balance.StringFixed(2), desc)
	}
	return tw.Flush()
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}
