package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/transfer"
)

// app holds the services a command runs against.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	store     *store.Store
	accounts  *accounts.Service
	ledger    *ledger.Service
	transfers *transfer.Coordinator
	vocab     *importer.Vocabulary
}

// loadConfig reads the config file. A missing file falls back to defaults so
// that a bare `tally serve` works with environment overrides alone.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		cfg.ApplyEnv(os.Getenv)
		return cfg, nil
	}
	return cfg, err
}

func openApp(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Out:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	extra, err := cfg.Import.VocabularyTypes()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	vocab, err := importer.DefaultVocabulary().With(extra)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("building vocabulary: %w", err)
	}

	l := ledger.NewService(st, ledger.WithLogger(log))
	return &app{
		cfg:       cfg,
		log:       log,
		store:     st,
		accounts:  accounts.NewService(st),
		ledger:    l,
		transfers: transfer.NewCoordinator(st, l, log),
		vocab:     vocab,
	}, nil
}

// reconciler builds a Reconciler for the named statement format; empty
// means the configured default.
func (a *app) reconciler(format string) (*importer.Reconciler, error) {
	if format == "" {
		format = a.cfg.Import.Format
	}
	parser := importer.DefaultRegistry().Get(format)
	if parser == nil {
		return nil, fmt.Errorf("unknown statement format %q", format)
	}
	loc, err := a.cfg.Import.Location()
	if err != nil {
		return nil, err
	}
	return importer.NewReconciler(a.store, a.ledger, importer.Options{
		Parser:     parser,
		Vocabulary: a.vocab,
		Locale:     a.cfg.Import.Locale,
		Location:   loc,
		Logger:     a.log,
	}), nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp adapts a function needing an app into a cobra RunE.
func withApp(opts *rootOptions, fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}
