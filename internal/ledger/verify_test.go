package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store/storetest"
)

func TestCheckEntries_Clean(t *testing.T) {
	entries := []model.Transaction{
		{ID: 1, Seq: 1, Amount: dec("500"), Balance: dec("500")},
		{ID: 2, Seq: 2, Amount: dec("-120"), Balance: dec("380")},
	}
	assert.Empty(t, CheckEntries(1, entries))
}

func TestCheckEntries_BadBalanceReportedOnce(t *testing.T) {
	entries := []model.Transaction{
		{ID: 1, Seq: 1, Amount: dec("500"), Balance: dec("500")},
		{ID: 2, Seq: 2, Amount: dec("-120"), Balance: dec("400")},
		{ID: 3, Seq: 3, Amount: dec("10"), Balance: dec("410")},
	}
	errs := CheckEntries(7, entries)
	require.Len(t, errs, 1)
	assert.Equal(t, CheckRunningBalance, errs[0].Check)
	assert.Equal(t, uint(2), errs[0].TransactionID)
	assert.Contains(t, errs[0].Error(), "expected 380.00")
}

func TestCheckEntries_Sequence(t *testing.T) {
	entries := []model.Transaction{
		{ID: 1, Seq: 2, Amount: dec("1"), Balance: dec("1")},
		{ID: 2, Seq: 2, Amount: dec("1"), Balance: dec("2")},
	}
	errs := CheckEntries(1, entries)
	require.Len(t, errs, 1)
	assert.Equal(t, CheckSequence, errs[0].Check)
}

func TestVerifyAll_DetectsTamperedBalance(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	a := storetest.Account(t, st, "A")
	b := storetest.Account(t, st, "B")

	appendAmount(t, svc, a, "10", "x")
	tampered := appendAmount(t, svc, b, "20", "y")

	errs, err := svc.VerifyAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, errs)

	require.NoError(t, st.UpdateBalance(ctx, tampered.ID, dec("21")))

	errs, err = svc.VerifyAll(ctx)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, b, errs[0].AccountID)
}

func TestVerify_UnknownAccount(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Verify(context.Background(), 42)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
