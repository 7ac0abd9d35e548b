package importer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// WatchDir binds an import directory to the account its statements belong to.
type WatchDir struct {
	Path      string
	AccountID uint
}

// Watcher imports statement files dropped into watched directories.
type Watcher struct {
	rec  *Reconciler
	dirs []WatchDir
	log  zerolog.Logger
}

// NewWatcher creates a Watcher over dirs.
func NewWatcher(rec *Reconciler, dirs []WatchDir, log zerolog.Logger) *Watcher {
	return &Watcher{rec: rec, dirs: dirs, log: log}
}

// RunOnce imports every pending file. Imported files move to processed/;
// files that fail stay in place and their errors are joined in the result.
func (w *Watcher) RunOnce(ctx context.Context) (Result, error) {
	var total Result
	var errs []error

	for _, d := range w.dirs {
		files, err := Scan(d.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			res, err := w.importFile(ctx, d, f)
			if err != nil {
				w.log.Error().Err(err).Str("file", f.Path).Msg("import failed")
				errs = append(errs, err)
				continue
			}
			total.Rows += res.Rows
			total.Skipped += res.Skipped
			total.Duplicates += res.Duplicates
			total.Created += res.Created
		}
	}
	return total, errors.Join(errs...)
}

func (w *Watcher) importFile(ctx context.Context, d WatchDir, f FileInfo) (Result, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	res, err := w.rec.Import(ctx, d.AccountID, raw)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", f.Name, err)
	}
	if err := MarkProcessed(d.Path, f.Name); err != nil {
		return Result{}, err
	}
	w.log.Info().Str("file", f.Path).Int("created", res.Created).Msg("statement file processed")
	return res, nil
}

// Start runs RunOnce on schedule (standard cron syntax or descriptors such
// as "@every 5m") until ctx is cancelled. Overlapping runs are skipped.
func (w *Watcher) Start(ctx context.Context, schedule string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Warn().Err(err).Msg("watch run finished with errors")
		}
	}); err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", schedule, err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
