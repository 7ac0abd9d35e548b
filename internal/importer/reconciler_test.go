package importer

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/storetest"
)

const threeRows = stmtHeader +
	"1,,2025-01-03,płatność kartą,-20.50,PLN,979.50,,Biedronka,Zakupy,karta 1234\n" +
	"2,,2025-01-02,przelew z rachunku,1000.00,PLN,1000.00,PL61109010140000071219812874,ACME,Wynagrodzenie,styczeń\n" +
	"3,,2025-01-05,wypłata z bankomatu,-100,PLN,879.50,,,Bankomat,\n"

type importFixture struct {
	st     *store.Store
	ledger *ledger.Service
	rec    *Reconciler
	acct   uint
	logs   *bytes.Buffer
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	st := storetest.New(t)
	l := ledger.NewService(st)
	logs := &bytes.Buffer{}
	return &importFixture{
		st:     st,
		ledger: l,
		rec:    NewReconciler(st, l, Options{Locale: "pl", Logger: zerolog.New(logs)}),
		acct:   storetest.Account(t, st, "Osobiste"),
		logs:   logs,
	}
}

func (f *importFixture) entries(t *testing.T) []model.Transaction {
	t.Helper()
	entries, err := f.ledger.Entries(context.Background(), f.acct)
	require.NoError(t, err)
	return entries
}

func TestImport_AppendsInIssueDateOrder(t *testing.T) {
	f := newImportFixture(t)

	res, err := f.rec.Import(context.Background(), f.acct, []byte(threeRows))
	require.NoError(t, err)
	assert.Equal(t, Result{Rows: 3, Created: 3}, res)

	entries := f.entries(t)
	require.Len(t, entries, 3)
	assert.Equal(t, "1000.00", entries[0].Balance.StringFixed(2))
	assert.Equal(t, "979.50", entries[1].Balance.StringFixed(2))
	assert.Equal(t, "879.50", entries[2].Balance.StringFixed(2))

	assert.Equal(t, "Wynagrodzenie styczeń", entries[0].Description)
	assert.Equal(t, "ACME", entries[0].Recipient)
	assert.Equal(t, "Bankomat", entries[2].Description)

	rows, err := f.st.ImportedRows(context.Background(), f.acct)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	byTxn := map[uint]model.ImportedTransaction{}
	for _, r := range rows {
		require.NotNil(t, r.TransactionID)
		byTxn[*r.TransactionID] = r
	}
	for _, e := range entries {
		require.NotNil(t, e.ImportedTransactionID)
		assert.Equal(t, *e.ImportedTransactionID, byTxn[e.ID].ID)
		assert.True(t, e.Date.Equal(byTxn[e.ID].IssueDate))
	}
}

func TestImport_ReimportCreatesNothing(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	_, err := f.rec.Import(ctx, f.acct, []byte(threeRows))
	require.NoError(t, err)

	res, err := f.rec.Import(ctx, f.acct, []byte(threeRows))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 3, res.Duplicates)
	assert.Len(t, f.entries(t), 3)
}

func TestImport_BadAmountRowSkipped(t *testing.T) {
	f := newImportFixture(t)

	csv := stmtHeader +
		"1,,2025-01-03,płatność kartą,-20.50,PLN,979.50,,,,\n" +
		"2,,2025-01-04,płatność kartą,dwadzieścia,PLN,959.50,,,,\n" +
		"3,,2025-01-05,płatność kartą,-10,PLN,969.50,,,,\n"

	res, err := f.rec.Import(context.Background(), f.acct, []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Contains(t, f.logs.String(), "dwadzieścia")
	assert.Contains(t, f.logs.String(), "statement row skipped")

	entries := f.entries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "-30.50", entries[1].Balance.StringFixed(2))
}

func TestImport_StrayQuoteDoesNotAbortFile(t *testing.T) {
	f := newImportFixture(t)

	csv := stmtHeader +
		"1,,2025-01-03,płatność kartą,-20.50,PLN,979.50,,,Zakupy,\n" +
		"2,,2025-01-04,płatność kartą,-899,PLN,80.50,,Sklep,Monitor 27\" LED,\n" +
		"3,,2025-01-05,płatność kartą,dziesięć,PLN,70.50,,,,\n"

	res, err := f.rec.Import(context.Background(), f.acct, []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, Result{Rows: 3, Skipped: 1, Created: 2}, res)

	entries := f.entries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, `Monitor 27" LED`, entries[1].Description)
	assert.Equal(t, "-919.50", entries[1].Balance.StringFixed(2))
}

func TestImport_DuplicateWithinFile(t *testing.T) {
	f := newImportFixture(t)

	csv := stmtHeader +
		"7,,2025-01-03,płatność kartą,-5,PLN,0,,,,\n" +
		"7,,2025-01-03,płatność kartą,-5,PLN,0,,,,\n"

	res, err := f.rec.Import(context.Background(), f.acct, []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, Result{Rows: 2, Duplicates: 1, Created: 1}, res)
}

func TestImport_Windows1250(t *testing.T) {
	f := newImportFixture(t)

	raw, err := charmap.Windows1250.NewEncoder().String(stmtHeader +
		"1,,2025-01-03,wypłata z bankomatu,-50,PLN,0,,Łódź,Bankomat,\n")
	require.NoError(t, err)

	res, err := f.rec.Import(context.Background(), f.acct, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, "Łódź", f.entries(t)[0].Recipient)
}

func TestImport_UndefinedCodePageByteSkipsOnlyItsRow(t *testing.T) {
	f := newImportFixture(t)

	raw, err := charmap.Windows1250.NewEncoder().String(stmtHeader +
		"1,,2025-01-03,wypłata z bankomatu,-50,PLN,0,,Łódź,Bankomat,\n" +
		"2,,2025-01-04,wypłata z bankomatu,-5X,PLN,0,,,,\n")
	require.NoError(t, err)
	bad := []byte(raw)
	bad[strings.Index(raw, "-5X")+2] = 0x98

	res, err := f.rec.Import(context.Background(), f.acct, bad)
	require.NoError(t, err)
	assert.Equal(t, Result{Rows: 2, Skipped: 1, Created: 1}, res)
	assert.Equal(t, "Łódź", f.entries(t)[0].Recipient)
}

func TestImport_EmptyInput(t *testing.T) {
	f := newImportFixture(t)

	res, err := f.rec.Import(context.Background(), f.acct, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	res, err = f.rec.Import(context.Background(), f.acct, []byte(stmtHeader))
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestImport_Errors(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	_, err := f.rec.Import(ctx, 999, []byte(threeRows))
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.rec.Import(ctx, f.acct, []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00})
	assert.ErrorIs(t, err, model.ErrDecodeFailure)

	require.NoError(t, f.st.SetAccountInactive(ctx, f.acct))
	_, err = f.rec.Import(ctx, f.acct, []byte(threeRows))
	assert.ErrorIs(t, err, model.ErrInactiveAccount)

	assert.Empty(t, f.entries(t))
}

func TestImport_RemovedEntryStaysDeduplicated(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	_, err := f.rec.Import(ctx, f.acct, []byte(threeRows))
	require.NoError(t, err)

	entries := f.entries(t)
	require.NoError(t, f.ledger.Remove(ctx, entries[0].ID))

	res, err := f.rec.Import(ctx, f.acct, []byte(threeRows))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)

	entries = f.entries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "-120.50", entries[1].Balance.StringFixed(2))
}

func TestImport_SameExternalIDOtherAccount(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()
	other := storetest.Account(t, f.st, "Oszczędności")

	_, err := f.rec.Import(ctx, f.acct, []byte(threeRows))
	require.NoError(t, err)

	res, err := f.rec.Import(ctx, other, []byte(threeRows))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
}

// conflictOn makes the given attempts hit the unique index on external ID 2,
// as a concurrent import of the same row committing after the dedup read
// would.
func conflictOn(f *importFixture, attempts ...int) {
	f.rec.afterDedup = func(ctx context.Context, tx *store.Store, attempt int) error {
		for _, a := range attempts {
			if a == attempt {
				return tx.InsertImported(ctx, &model.ImportedTransaction{
					AccountID:  f.acct,
					ExternalID: 2,
					IssueDate:  time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
					Type:       model.OpAccountTransfer,
					Currency:   model.CurrencyPLN,
				})
			}
		}
		return nil
	}
}

func TestImport_ConflictRetriedOnce(t *testing.T) {
	f := newImportFixture(t)
	conflictOn(f, 0)

	res, err := f.rec.Import(context.Background(), f.acct, []byte(threeRows))
	require.NoError(t, err)
	assert.Equal(t, Result{Rows: 3, Created: 3}, res)
	assert.Equal(t, 1, strings.Count(f.logs.String(), "retrying"))

	entries := f.entries(t)
	require.Len(t, entries, 3)
	assert.Empty(t, ledger.CheckEntries(f.acct, entries))
}

func TestImport_SecondConflictFails(t *testing.T) {
	f := newImportFixture(t)
	conflictOn(f, 0, 1)

	_, err := f.rec.Import(context.Background(), f.acct, []byte(threeRows))
	require.Error(t, err)
	assert.True(t, store.IsDuplicate(err))

	assert.Empty(t, f.entries(t))
	rows, err := f.st.ImportedRows(context.Background(), f.acct)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestImport_RetryDeduplicatesCommittedRow(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	// The competing import won: its row for external ID 2 is committed.
	first := stmtHeader + "2,,2025-01-02,przelew z rachunku,1000.00,PLN,1000.00,,ACME,Wynagrodzenie,styczeń\n"
	_, err := f.rec.Import(ctx, f.acct, []byte(first))
	require.NoError(t, err)

	res, err := f.rec.Import(ctx, f.acct, []byte(threeRows))
	require.NoError(t, err)
	assert.Equal(t, Result{Rows: 3, Duplicates: 1, Created: 2}, res)
	assert.Len(t, f.entries(t), 3)
}

