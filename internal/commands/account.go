package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAccountCommand(opts *rootOptions) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Banks and accounts",
	}
	accountCmd.AddCommand(
		newAccountAddCommand(opts),
		newAccountLsCommand(opts),
		newAccountDeactivateCommand(opts),
		newAccountSeedCommand(opts),
	)
	return accountCmd
}

func newAccountAddCommand(opts *rootOptions) *cobra.Command {
	var bank, name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account, creating its bank if needed",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			acct, err := a.accounts.Create(cmd.Context(), bank, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %d (%s / %s)\n", acct.ID, bank, acct.Name)
			return nil
		}),
	}

	cmd.Flags().StringVar(&bank, "bank", "", "bank name (required)")
	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("bank")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAccountLsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			accts, err := a.accounts.All(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tBANK\tNAME\tBALANCE\tSTATUS")
			for i := range accts {
				acct := &accts[i]
				bank, err := a.accounts.Bank(ctx, acct)
				if err != nil {
					return err
				}
				balance, err := a.ledger.Balance(ctx, acct.ID)
				if err != nil {
					return err
				}
				status := "active"
				if acct.Inactive {
					status = "inactive"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", acct.ID, bank.Name, acct.Name, balance.StringFixed(2), status)
			}
			return tw.Flush()
		}),
	}
}

func newAccountDeactivateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Stop an account from receiving new entries",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.accounts.Deactivate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deactivated account %d\n", id)
			return nil
		}),
	}
}

func newAccountSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the banks and accounts listed in the config",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			n, err := a.accounts.Seed(cmd.Context(), a.cfg.Banks)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d accounts\n", n)
			return nil
		}),
	}
}
