package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Service manages banks and their accounts.
type Service struct {
	store *store.Store
}

// NewService creates a Service over st.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Create adds an account under the named bank, creating the bank on first
// use. Account names are unique per bank.
func (s *Service) Create(ctx context.Context, bankName, name string) (*model.Account, error) {
	bankName, name = strings.TrimSpace(bankName), strings.TrimSpace(name)
	if bankName == "" || name == "" {
		return nil, errors.New("bank and account name are required")
	}

	var acct *model.Account
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		bank, err := findOrCreateBank(ctx, tx, bankName)
		if err != nil {
			return err
		}
		if existing, err := tx.AccountByName(ctx, bank.ID, name); err == nil {
			return fmt.Errorf("account %q at %q already exists as %d", name, bankName, existing.ID)
		} else if !errors.Is(err, model.ErrNotFound) {
			return err
		}
		acct = &model.Account{BankID: bank.ID, Name: name}
		return tx.CreateAccount(ctx, acct)
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// Get returns an account by ID.
func (s *Service) Get(ctx context.Context, id uint) (*model.Account, error) {
	return s.store.Account(ctx, id)
}

// All returns all accounts, inactive ones included.
func (s *Service) All(ctx context.Context) ([]model.Account, error) {
	return s.store.Accounts(ctx)
}

// Bank returns the bank an account belongs to.
func (s *Service) Bank(ctx context.Context, acct *model.Account) (*model.Bank, error) {
	return s.store.Bank(ctx, acct.BankID)
}

// Deactivate flags an account inactive. Its ledger stays readable and
// entries can still be removed, but nothing new can be added.
func (s *Service) Deactivate(ctx context.Context, id uint) error {
	return s.store.SetAccountInactive(ctx, id)
}

// Seed creates the configured banks and accounts that do not exist yet and
// returns how many accounts it created.
func (s *Service) Seed(ctx context.Context, banks []config.BankConfig) (int, error) {
	created := 0
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		created = 0
		for _, b := range banks {
			bank, err := findOrCreateBank(ctx, tx, b.Name)
			if err != nil {
				return err
			}
			for _, name := range b.Accounts {
				_, err := tx.AccountByName(ctx, bank.ID, name)
				if err == nil {
					continue
				}
				if !errors.Is(err, model.ErrNotFound) {
					return err
				}
				if err := tx.CreateAccount(ctx, &model.Account{BankID: bank.ID, Name: name}); err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seeding accounts: %w", err)
	}
	return created, nil
}

func findOrCreateBank(ctx context.Context, tx *store.Store, name string) (*model.Bank, error) {
	bank, err := tx.BankByName(ctx, name)
	if err == nil {
		return bank, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	bank = &model.Bank{Name: name}
	if err := tx.CreateBank(ctx, bank); err != nil {
		return nil, err
	}
	return bank, nil
}
