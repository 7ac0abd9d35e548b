package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Service keeps every account's running balances consistent. It is the only
// code that writes Transaction.Balance.
type Service struct {
	store *store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for cascade diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the clock used for default entry dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ledger Service over st.
func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{store: st, log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithStore returns a copy of the service bound to st, typically the store
// of an enclosing atomic unit.
func (s *Service) WithStore(st *store.Store) *Service {
	cp := *s
	cp.store = st
	return &cp
}

// AppendParams holds parameters for a new ledger entry.
type AppendParams struct {
	AccountID             uint
	Amount                decimal.Decimal
	Description           string
	Recipient             string
	Date                  time.Time // zero means now
	TransferID            string
	ImportedTransactionID *uint
}

// Append adds an entry at the tail of the account's ledger. Its balance is
// the previous tail balance (0 for an empty ledger) plus the amount.
func (s *Service) Append(ctx context.Context, p AppendParams) (*model.Transaction, error) {
	var txn *model.Transaction
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		acct, err := tx.LockAccount(ctx, p.AccountID)
		if err != nil {
			return err
		}
		if acct.Inactive {
			return fmt.Errorf("account %d: %w", acct.ID, model.ErrInactiveAccount)
		}

		txn = &model.Transaction{
			AccountID:             p.AccountID,
			Amount:                p.Amount,
			Date:                  s.dateOrNow(p.Date),
			Description:           p.Description,
			Recipient:             p.Recipient,
			TransferID:            p.TransferID,
			ImportedTransactionID: p.ImportedTransactionID,
		}
		if err := placeAtTail(ctx, tx, txn); err != nil {
			return err
		}
		return tx.InsertTransaction(ctx, txn)
	})
	if err != nil {
		return nil, fmt.Errorf("appending to account %d: %w", p.AccountID, err)
	}
	return txn, nil
}

// AmendParams holds the new values of an existing entry.
type AmendParams struct {
	ID          uint
	Amount      decimal.Decimal
	AccountID   uint // zero keeps the current account
	Description string
	Recipient   string
	Date        time.Time // zero keeps the current date
}

// Amend changes an entry. Descriptive-only changes write nothing else. A new
// amount recomputes the entry and every later entry of its account; a new
// account moves the entry to the tail of that account and recomputes the
// vacated suffix of the old one.
func (s *Service) Amend(ctx context.Context, p AmendParams) (*model.Transaction, error) {
	var txn *model.Transaction
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		if p.AccountID != 0 {
			if _, err := tx.Account(ctx, p.AccountID); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return fmt.Errorf("target account %d: %w", p.AccountID, model.ErrInvalidReference)
				}
				return err
			}
		}

		var (
			accts map[uint]*model.Account
			err   error
		)
		txn, accts, err = lockEntry(ctx, tx, p.ID, p.AccountID)
		if err != nil {
			return err
		}
		if txn.IsLeg() {
			return fmt.Errorf("transaction %d of transfer %s: %w", txn.ID, txn.TransferID, model.ErrTransferLeg)
		}

		oldAccount, oldSeq := txn.AccountID, txn.Seq
		newAccount := oldAccount
		if p.AccountID != 0 {
			newAccount = p.AccountID
		}

		txn.Description = p.Description
		txn.Recipient = p.Recipient
		if !p.Date.IsZero() {
			txn.Date = p.Date
		}

		if newAccount == oldAccount && p.Amount.Equal(txn.Amount) {
			return tx.SaveTransaction(ctx, txn)
		}

		if newAccount == oldAccount {
			baseline, err := baselineBefore(ctx, tx, oldAccount, oldSeq)
			if err != nil {
				return err
			}
			txn.Amount = p.Amount
			txn.Balance = baseline.Add(p.Amount)
			if err := tx.SaveTransaction(ctx, txn); err != nil {
				return err
			}
			return s.cascade(ctx, tx, oldAccount, oldSeq, txn.Balance)
		}

		if accts[newAccount].Inactive {
			return fmt.Errorf("account %d: %w", newAccount, model.ErrInactiveAccount)
		}

		txn.AccountID = newAccount
		txn.Amount = p.Amount
		if err := placeAtTail(ctx, tx, txn); err != nil {
			return err
		}
		if err := tx.SaveTransaction(ctx, txn); err != nil {
			return err
		}
		return s.recomputeFrom(ctx, tx, oldAccount, oldSeq)
	})
	if err != nil {
		return nil, fmt.Errorf("amending transaction %d: %w", p.ID, err)
	}
	return txn, nil
}

// Remove deletes an entry and recomputes the rest of its account's ledger.
// Transfer legs are refused; they go away with their transfer.
func (s *Service) Remove(ctx context.Context, id uint) error {
	if err := s.remove(ctx, id, false); err != nil {
		return fmt.Errorf("removing transaction %d: %w", id, err)
	}
	return nil
}

// RemoveLeg deletes a transfer leg like Remove. The caller removes the other
// leg in the same atomic unit.
func (s *Service) RemoveLeg(ctx context.Context, id uint) error {
	if err := s.remove(ctx, id, true); err != nil {
		return fmt.Errorf("removing leg %d: %w", id, err)
	}
	return nil
}

func (s *Service) remove(ctx context.Context, id uint, allowLeg bool) error {
	return s.store.Atomic(ctx, func(tx *store.Store) error {
		txn, _, err := lockEntry(ctx, tx, id, 0)
		if err != nil {
			return err
		}
		if txn.IsLeg() && !allowLeg {
			return fmt.Errorf("transfer %s: %w", txn.TransferID, model.ErrTransferLeg)
		}
		if err := tx.DeleteTransaction(ctx, txn.ID); err != nil {
			return err
		}
		return s.recomputeFrom(ctx, tx, txn.AccountID, txn.Seq)
	})
}

// Transaction returns a single entry.
func (s *Service) Transaction(ctx context.Context, id uint) (*model.Transaction, error) {
	return s.store.Transaction(ctx, id)
}

// Entries returns an account's ledger in ledger order.
func (s *Service) Entries(ctx context.Context, accountID uint) ([]model.Transaction, error) {
	if _, err := s.store.Account(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.Entries(ctx, accountID)
}

// Balance returns the account's current balance: the running balance of its
// last entry, or zero when the ledger is empty.
func (s *Service) Balance(ctx context.Context, accountID uint) (decimal.Decimal, error) {
	if _, err := s.store.Account(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	tail, err := s.store.Tail(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if tail == nil {
		return decimal.Zero, nil
	}
	return tail.Balance, nil
}

// recomputeFrom re-derives every balance after seq, starting from the
// balance of the entry before seq.
func (s *Service) recomputeFrom(ctx context.Context, tx *store.Store, accountID uint, seq int64) error {
	baseline, err := baselineBefore(ctx, tx, accountID, seq)
	if err != nil {
		return err
	}
	return s.cascade(ctx, tx, accountID, seq, baseline)
}

// cascade walks the entries after seq in ascending order, setting
// balance[k] = balance[k-1] + amount[k]. Only balances that actually change
// are written.
func (s *Service) cascade(ctx context.Context, tx *store.Store, accountID uint, seq int64, running decimal.Decimal) error {
	suffix, err := tx.Suffix(ctx, accountID, seq)
	if err != nil {
		return err
	}

	written := 0
	for _, e := range suffix {
		running = running.Add(e.Amount)
		if e.Balance.Equal(running) {
			continue
		}
		if err := tx.UpdateBalance(ctx, e.ID, running); err != nil {
			return err
		}
		written++
	}

	s.log.Debug().
		Uint("account_id", accountID).
		Int64("after_seq", seq).
		Int("walked", len(suffix)).
		Int("written", written).
		Msg("cascade recompute")
	return nil
}

func (s *Service) dateOrNow(d time.Time) time.Time {
	if d.IsZero() {
		return s.now().UTC()
	}
	return d
}

// placeAtTail sets the entry's position and balance to follow the current
// tail of its account.
func placeAtTail(ctx context.Context, tx *store.Store, txn *model.Transaction) error {
	tail, err := tx.Tail(ctx, txn.AccountID)
	if err != nil {
		return err
	}
	txn.Seq = 1
	txn.Balance = txn.Amount
	if tail != nil {
		txn.Seq = tail.Seq + 1
		txn.Balance = tail.Balance.Add(txn.Amount)
	}
	return nil
}

// baselineBefore returns the running balance just before seq, which is zero
// at the start of the ledger.
func baselineBefore(ctx context.Context, tx *store.Store, accountID uint, seq int64) (decimal.Decimal, error) {
	pred, err := tx.Predecessor(ctx, accountID, seq)
	if err != nil {
		return decimal.Zero, err
	}
	if pred == nil {
		return decimal.Zero, nil
	}
	return pred.Balance, nil
}

// lockEntry locks the account holding entry id, and extra when non-zero,
// in ascending ID order, then reads the entry. Entry rows are never locked
// ahead of their account: units editing the same ledger queue on the
// account row and the cascade's row updates cannot cross. An entry moved to
// another account between the unlocked read and the locks is followed.
func lockEntry(ctx context.Context, tx *store.Store, id, extra uint) (*model.Transaction, map[uint]*model.Account, error) {
	txn, err := tx.Transaction(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	accts := make(map[uint]*model.Account, 2)
	for range 3 {
		ids := []uint{txn.AccountID}
		if extra != 0 && extra != txn.AccountID {
			ids = append(ids, extra)
		}
		slices.Sort(ids)
		for _, acctID := range ids {
			if _, ok := accts[acctID]; ok {
				continue
			}
			acct, err := tx.LockAccount(ctx, acctID)
			if err != nil {
				return nil, nil, err
			}
			accts[acctID] = acct
		}

		locked, err := tx.Transaction(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if locked.AccountID == txn.AccountID {
			return locked, accts, nil
		}
		txn = locked
	}
	return nil, nil, fmt.Errorf("transaction %d moved between accounts while locking", id)
}
