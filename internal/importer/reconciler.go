package importer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Result counts what one import did.
type Result struct {
	Rows       int `json:"rows"`       // data rows in the statement
	Skipped    int `json:"skipped"`    // rows that failed classification or validation
	Duplicates int `json:"duplicates"` // rows already imported, or repeated in the file
	Created    int `json:"created"`    // new ledger entries
}

// Options configures a Reconciler.
type Options struct {
	Parser     Parser // defaults to StatementParser
	Vocabulary *Vocabulary
	Locale     string // selects the legacy code page fallback
	Location   *time.Location
	Logger     zerolog.Logger
}

// Reconciler merges statements into an account's ledger exactly once per
// external ID.
type Reconciler struct {
	store  *store.Store
	ledger *ledger.Service
	parser Parser
	parse  ParseOptions
	locale string
	log    zerolog.Logger

	// afterDedup, when set, runs inside each attempt's unit between the
	// dedup read and the inserts.
	afterDedup func(ctx context.Context, tx *store.Store, attempt int) error
}

// NewReconciler creates a Reconciler appending through l.
func NewReconciler(st *store.Store, l *ledger.Service, opts Options) *Reconciler {
	parser := opts.Parser
	if parser == nil {
		parser = &StatementParser{}
	}
	return &Reconciler{
		store:  st,
		ledger: l,
		parser: parser,
		parse:  ParseOptions{Vocabulary: opts.Vocabulary, Location: opts.Location}.withDefaults(),
		locale: opts.Locale,
		log:    opts.Logger,
	}
}

// Import decodes, parses and deduplicates raw statement bytes, then stores
// the new rows and appends them to the account's ledger in issue date order.
// Bad rows are logged and skipped. A uniqueness conflict with a concurrent
// import of the same account is retried once.
func (r *Reconciler) Import(ctx context.Context, accountID uint, raw []byte) (Result, error) {
	acct, err := r.store.Account(ctx, accountID)
	if err != nil {
		return Result{}, fmt.Errorf("importing into account %d: %w", accountID, err)
	}
	if acct.Inactive {
		return Result{}, fmt.Errorf("importing into account %d: %w", accountID, model.ErrInactiveAccount)
	}

	log := r.log.With().Uint("account_id", accountID).Str("format", r.parser.Format()).Logger()

	text, err := Decode(raw, r.locale)
	if err != nil {
		return Result{}, fmt.Errorf("decoding statement: %w", err)
	}

	stmt, err := r.parser.Parse(strings.NewReader(text), r.parse)
	if err != nil {
		return Result{}, fmt.Errorf("parsing statement: %w", err)
	}
	for _, rowErr := range stmt.Skipped {
		log.Warn().
			Int("line", rowErr.Line).
			Str("field", rowErr.Field).
			Str("value", rowErr.Value).
			Err(rowErr.Err).
			Msg("statement row skipped")
	}

	res := Result{Rows: stmt.Total, Skipped: len(stmt.Skipped)}
	if len(stmt.Rows) == 0 {
		return res, nil
	}

	var created, dups int
	for attempt := 0; ; attempt++ {
		created, dups, err = r.reconcile(ctx, accountID, stmt.Rows, attempt)
		if err == nil || attempt > 0 || !store.IsDuplicate(err) {
			break
		}
		log.Info().Err(err).Msg("concurrent import conflict, retrying")
	}
	if err != nil {
		return Result{}, fmt.Errorf("importing into account %d: %w", accountID, err)
	}

	res.Created = created
	res.Duplicates = dups
	log.Info().
		Int("rows", res.Rows).
		Int("skipped", res.Skipped).
		Int("duplicates", res.Duplicates).
		Int("created", res.Created).
		Msg("statement imported")
	return res, nil
}

// reconcile runs one attempt in a single unit: the dedup read, the inserts
// and the ledger appends commit or roll back together.
func (r *Reconciler) reconcile(ctx context.Context, accountID uint, rows []model.ImportedTransaction, attempt int) (created, dups int, err error) {
	err = r.store.Atomic(ctx, func(tx *store.Store) error {
		created, dups = 0, 0

		acct, err := tx.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if acct.Inactive {
			return fmt.Errorf("account %d: %w", accountID, model.ErrInactiveAccount)
		}

		ids := make([]int64, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ExternalID)
		}
		existing, err := tx.ExternalIDs(ctx, accountID, ids)
		if err != nil {
			return err
		}

		fresh := make([]model.ImportedTransaction, 0, len(rows))
		seen := make(map[int64]bool, len(rows))
		for _, row := range rows {
			if existing[row.ExternalID] || seen[row.ExternalID] {
				dups++
				continue
			}
			seen[row.ExternalID] = true
			row.AccountID = accountID
			fresh = append(fresh, row)
		}

		sort.SliceStable(fresh, func(i, j int) bool {
			if !fresh[i].IssueDate.Equal(fresh[j].IssueDate) {
				return fresh[i].IssueDate.Before(fresh[j].IssueDate)
			}
			return fresh[i].ExternalID < fresh[j].ExternalID
		})

		if r.afterDedup != nil {
			if err := r.afterDedup(ctx, tx, attempt); err != nil {
				return err
			}
		}

		l := r.ledger.WithStore(tx)
		for i := range fresh {
			row := &fresh[i]
			if err := tx.InsertImported(ctx, row); err != nil {
				return err
			}
			txn, err := l.Append(ctx, ledger.AppendParams{
				AccountID:             accountID,
				Amount:                row.Amount,
				Description:           strings.TrimSpace(row.Description + " " + row.Description2),
				Recipient:             row.CounterpartName,
				Date:                  row.IssueDate,
				ImportedTransactionID: &row.ID,
			})
			if err != nil {
				return err
			}
			if err := tx.LinkImported(ctx, row.ID, txn.ID); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, dups, err
}
