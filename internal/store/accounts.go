package store

import (
	"context"
	"fmt"

	"github.com/cleared-dev/tally/internal/model"
)

// CreateBank inserts a bank.
func (s *Store) CreateBank(ctx context.Context, bank *model.Bank) error {
	if err := s.db.WithContext(ctx).Create(bank).Error; err != nil {
		return fmt.Errorf("creating bank %q: %w", bank.Name, err)
	}
	return nil
}

// Bank returns a bank by ID.
func (s *Store) Bank(ctx context.Context, id uint) (*model.Bank, error) {
	var bank model.Bank
	if err := s.db.WithContext(ctx).First(&bank, id).Error; err != nil {
		return nil, notFound(err, "bank %d", id)
	}
	return &bank, nil
}

// BankByName returns the bank with the exact name.
func (s *Store) BankByName(ctx context.Context, name string) (*model.Bank, error) {
	var bank model.Bank
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&bank).Error; err != nil {
		return nil, notFound(err, "bank %q", name)
	}
	return &bank, nil
}

// CreateAccount inserts an account.
func (s *Store) CreateAccount(ctx context.Context, acct *model.Account) error {
	if err := s.db.WithContext(ctx).Create(acct).Error; err != nil {
		return fmt.Errorf("creating account %q: %w", acct.Name, err)
	}
	return nil
}

// Account returns an account by ID.
func (s *Store) Account(ctx context.Context, id uint) (*model.Account, error) {
	var acct model.Account
	if err := s.db.WithContext(ctx).First(&acct, id).Error; err != nil {
		return nil, notFound(err, "account %d", id)
	}
	return &acct, nil
}

// LockAccount returns an account and holds its row lock until the unit ends.
// Every ledger mutation of an account goes through this lock first.
func (s *Store) LockAccount(ctx context.Context, id uint) (*model.Account, error) {
	var acct model.Account
	if err := s.forUpdate(s.db.WithContext(ctx)).First(&acct, id).Error; err != nil {
		return nil, notFound(err, "account %d", id)
	}
	return &acct, nil
}

// Accounts lists all accounts ordered by ID.
func (s *Store) Accounts(ctx context.Context) ([]model.Account, error) {
	var accts []model.Account
	if err := s.db.WithContext(ctx).Order("id").Find(&accts).Error; err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accts, nil
}

// AccountByName returns the account with the exact name at a bank.
func (s *Store) AccountByName(ctx context.Context, bankID uint, name string) (*model.Account, error) {
	var acct model.Account
	err := s.db.WithContext(ctx).Where("bank_id = ? AND name = ?", bankID, name).First(&acct).Error
	if err != nil {
		return nil, notFound(err, "account %q", name)
	}
	return &acct, nil
}

// SetAccountInactive flags an account inactive. Accounts are never deleted.
func (s *Store) SetAccountInactive(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update("inactive", true)
	if res.Error != nil {
		return fmt.Errorf("deactivating account %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %d: %w", id, model.ErrNotFound)
	}
	return nil
}
