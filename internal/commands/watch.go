package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/importer"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Import statements dropped into the configured directories",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			if len(a.cfg.Import.Watch.Dirs) == 0 {
				return errors.New("no import.watch.dirs configured")
			}
			rec, err := a.reconciler("")
			if err != nil {
				return err
			}

			dirs := make([]importer.WatchDir, 0, len(a.cfg.Import.Watch.Dirs))
			for _, d := range a.cfg.Import.Watch.Dirs {
				dirs = append(dirs, importer.WatchDir{Path: d.Path, AccountID: d.AccountID})
			}
			w := importer.NewWatcher(rec, dirs, a.log)

			if once {
				res, err := w.RunOnce(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "created: %d, duplicates: %d, skipped: %d\n",
					res.Created, res.Duplicates, res.Skipped)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			c, err := w.Start(ctx, a.cfg.Import.Watch.Schedule)
			if err != nil {
				return err
			}
			a.log.Info().Str("schedule", a.cfg.Import.Watch.Schedule).Int("dirs", len(dirs)).Msg("watching import directories")
			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		}),
	}

	cmd.Flags().BoolVar(&once, "once", false, "scan once and exit")
	return cmd
}
