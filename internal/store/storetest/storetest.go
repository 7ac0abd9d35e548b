// Package storetest provides throwaway sqlite stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// New opens a migrated sqlite store in a temp directory. It is closed when
// the test ends.
func New(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// Account creates an active account under a fresh bank and returns its ID.
func Account(t *testing.T, st *store.Store, name string) uint {
	t.Helper()
	ctx := context.Background()
	bank := &model.Bank{Name: name + " bank"}
	require.NoError(t, st.CreateBank(ctx, bank))
	acct := &model.Account{BankID: bank.ID, Name: name}
	require.NoError(t, st.CreateAccount(ctx, acct))
	return acct.ID
}
