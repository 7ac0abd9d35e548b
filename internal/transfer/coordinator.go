// Package transfer moves value between two accounts as a pair of ledger
// legs created and removed together.
package transfer

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Params describes a transfer.
type Params struct {
	Source      uint
	Target      uint
	Value       decimal.Decimal
	Description string
	Date        time.Time // zero means now
}

// Coordinator creates, updates and reverses transfers.
type Coordinator struct {
	store  *store.Store
	ledger *ledger.Service
	log    zerolog.Logger
	newID  func() string
}

// NewCoordinator creates a Coordinator writing through the given ledger.
func NewCoordinator(st *store.Store, l *ledger.Service, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:  st,
		ledger: l,
		log:    log,
		newID:  func() string { return uuid.NewString() },
	}
}

// Create debits Value from Source and credits it to Target in one unit.
// It returns the new transfer ID.
func (c *Coordinator) Create(ctx context.Context, p Params) (string, error) {
	if err := validate(p); err != nil {
		return "", err
	}

	id := c.newID()
	err := c.store.Atomic(ctx, func(tx *store.Store) error {
		return c.create(ctx, tx, id, p)
	})
	if err != nil {
		return "", fmt.Errorf("creating transfer: %w", err)
	}

	c.log.Info().
		Str("transfer_id", id).
		Uint("source", p.Source).
		Uint("target", p.Target).
		Str("value", p.Value.StringFixed(2)).
		Msg("transfer created")
	return id, nil
}

// Reverse removes both legs of a transfer. Each account's later entries are
// recomputed as for any removal.
func (c *Coordinator) Reverse(ctx context.Context, id string) error {
	err := c.store.Atomic(ctx, func(tx *store.Store) error {
		return c.reverse(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("reversing transfer %s: %w", id, err)
	}
	c.log.Info().Str("transfer_id", id).Msg("transfer reversed")
	return nil
}

// Update replaces a transfer's legs with new ones built from p. The
// transfer keeps its ID.
func (c *Coordinator) Update(ctx context.Context, id string, p Params) error {
	if err := validate(p); err != nil {
		return err
	}

	err := c.store.Atomic(ctx, func(tx *store.Store) error {
		if err := c.reverse(ctx, tx, id); err != nil {
			return err
		}
		return c.create(ctx, tx, id, p)
	})
	if err != nil {
		return fmt.Errorf("updating transfer %s: %w", id, err)
	}
	c.log.Info().Str("transfer_id", id).Msg("transfer updated")
	return nil
}

// Get reconstructs a transfer from its legs.
func (c *Coordinator) Get(ctx context.Context, id string) (*model.Transfer, error) {
	legs, err := c.store.TransferLegs(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(legs) != 2 {
		return nil, fmt.Errorf("transfer %s: %w", id, model.ErrNotFound)
	}

	debit, credit := legs[0], legs[1]
	if debit.Amount.IsPositive() {
		debit, credit = credit, debit
	}
	return &model.Transfer{
		ID:              id,
		SourceAccountID: debit.AccountID,
		TargetAccountID: credit.AccountID,
		Value:           credit.Amount,
		Description:     credit.Description,
		Debit:           debit,
		Credit:          credit,
	}, nil
}

// List returns the transfers touching an account, oldest first.
func (c *Coordinator) List(ctx context.Context, accountID uint) ([]model.Transfer, error) {
	if _, err := c.store.Account(ctx, accountID); err != nil {
		return nil, err
	}
	ids, err := c.store.TransferIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}
	transfers := make([]model.Transfer, 0, len(ids))
	for _, id := range ids {
		tr, err := c.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, *tr)
	}
	return transfers, nil
}

func (c *Coordinator) create(ctx context.Context, tx *store.Store, id string, p Params) error {
	accts, err := lockAccounts(ctx, tx, p.Source, p.Target)
	if err != nil {
		return err
	}
	for _, acct := range accts {
		if acct.Inactive {
			return fmt.Errorf("account %d: %w", acct.ID, model.ErrInactiveAccount)
		}
	}

	l := c.ledger.WithStore(tx)
	if _, err := l.Append(ctx, ledger.AppendParams{
		AccountID:   p.Source,
		Amount:      p.Value.Neg(),
		Description: p.Description,
		Date:        p.Date,
		TransferID:  id,
	}); err != nil {
		return err
	}
	_, err = l.Append(ctx, ledger.AppendParams{
		AccountID:   p.Target,
		Amount:      p.Value,
		Description: p.Description,
		Date:        p.Date,
		TransferID:  id,
	})
	return err
}

func (c *Coordinator) reverse(ctx context.Context, tx *store.Store, id string) error {
	legs, err := tx.TransferLegs(ctx, id)
	if err != nil {
		return err
	}
	if len(legs) == 0 {
		return fmt.Errorf("transfer %s: %w", id, model.ErrNotFound)
	}

	ids := make([]uint, 0, len(legs))
	for _, leg := range legs {
		ids = append(ids, leg.AccountID)
	}
	if _, err := lockAccounts(ctx, tx, ids...); err != nil {
		return err
	}
	// A concurrent reverse may have won the locks.
	legs, err = tx.TransferLegs(ctx, id)
	if err != nil {
		return err
	}
	if len(legs) == 0 {
		return fmt.Errorf("transfer %s: %w", id, model.ErrNotFound)
	}

	l := c.ledger.WithStore(tx)
	for _, leg := range legs {
		if err := l.RemoveLeg(ctx, leg.ID); err != nil {
			return err
		}
	}
	return nil
}

// lockAccounts locks each distinct account in ascending ID order so
// opposite transfers between the same pair cannot deadlock.
func lockAccounts(ctx context.Context, tx *store.Store, ids ...uint) ([]*model.Account, error) {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	accts := make([]*model.Account, 0, len(ids))
	for _, id := range ids {
		acct, err := tx.LockAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		accts = append(accts, acct)
	}
	return accts, nil
}

func validate(p Params) error {
	if p.Source == p.Target {
		return fmt.Errorf("source and target are both account %d: %w", p.Source, model.ErrInvalidTransfer)
	}
	if !p.Value.IsPositive() {
		return fmt.Errorf("value %s must be positive: %w", p.Value, model.ErrInvalidTransfer)
	}
	return nil
}
