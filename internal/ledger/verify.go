package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Check identifies which ledger property a VerifyError violates.
type Check string

const (
	CheckRunningBalance Check = "running_balance"
	CheckSequence       Check = "sequence"
)

// VerifyError describes a single violation found by Verify.
type VerifyError struct {
	Check         Check
	AccountID     uint
	TransactionID uint
	Description   string
}

func (e VerifyError) Error() string {
	return fmt.Sprintf("%s [account %d, transaction %d]: %s", e.Check, e.AccountID, e.TransactionID, e.Description)
}

// Verify re-checks an account's ledger: positions strictly increase and
// every balance equals the previous balance plus its amount.
func (s *Service) Verify(ctx context.Context, accountID uint) ([]VerifyError, error) {
	entries, err := s.Entries(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("verifying account %d: %w", accountID, err)
	}
	return CheckEntries(accountID, entries), nil
}

// VerifyAll runs Verify over every account, inactive ones included.
func (s *Service) VerifyAll(ctx context.Context) ([]VerifyError, error) {
	accts, err := s.store.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	var errs []VerifyError
	for _, a := range accts {
		found, err := s.Verify(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		errs = append(errs, found...)
	}
	return errs, nil
}

// CheckEntries checks entries already in ledger order.
func CheckEntries(accountID uint, entries []model.Transaction) []VerifyError {
	var errs []VerifyError

	running := decimal.Zero
	var prevSeq int64
	for i, e := range entries {
		if i > 0 && e.Seq <= prevSeq {
			errs = append(errs, VerifyError{
				Check:         CheckSequence,
				AccountID:     accountID,
				TransactionID: e.ID,
				Description:   fmt.Sprintf("seq %d does not follow %d", e.Seq, prevSeq),
			})
		}
		prevSeq = e.Seq

		running = running.Add(e.Amount)
		if !e.Balance.Equal(running) {
			errs = append(errs, VerifyError{
				Check:         CheckRunningBalance,
				AccountID:     accountID,
				TransactionID: e.ID,
				Description:   fmt.Sprintf("balance %s, expected %s", e.Balance.StringFixed(2), running.StringFixed(2)),
			})
			// Continue from the stored value so one bad row is reported once.
			running = e.Balance
		}
	}
	return errs
}
