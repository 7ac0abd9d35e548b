package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/store"
)

func newInitCommand() *cobra.Command {
	var driver, dsn, locale string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, driver, dsn, locale)
		},
	}

	cmd.Flags().StringVar(&driver, "db-driver", store.DriverSQLite, "database driver (sqlite or postgres)")
	cmd.Flags().StringVar(&dsn, "db-dsn", "", "database DSN (default: tally.db in the directory)")
	cmd.Flags().StringVar(&locale, "locale", "pl", "statement locale, selects the legacy code page")

	return cmd
}

func runInit(cmd *cobra.Command, dir, driver, dsn, locale string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	importDir := filepath.Join(dir, "import")
	if err := os.MkdirAll(filepath.Join(importDir, "processed"), 0o755); err != nil {
		return fmt.Errorf("creating import directory: %w", err)
	}

	if dsn == "" && driver == store.DriverSQLite {
		dsn = filepath.Join(dir, "tally.db")
	}

	cfg := config.Default()
	cfg.Database.Driver = driver
	cfg.Database.DSN = dsn
	cfg.Import.Locale = locale
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	st, err := store.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized tally ledger at %s\n", dir)
	return nil
}
