package importer

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

const stmtHeader = "id,booking,issue_date,type,amount,currency,balance,counterpart_account,counterpart_name,description,description2\n"

func parse(t *testing.T, body string, opts ParseOptions) *Statement {
	t.Helper()
	stmt, err := (&StatementParser{}).Parse(strings.NewReader(stmtHeader+body), opts)
	require.NoError(t, err)
	return stmt
}

func TestStatementParser_Parse(t *testing.T) {
	stmt := parse(t, ""+
		"101,,2025-01-03,płatność kartą,-20.50,PLN,979.50,,Biedronka,Zakupy,karta 1234\n"+
		"102,,2025-01-02 08:15:00,przelew z rachunku,1000.00,pln,1000.00,PL61109010140000071219812874,ACME Sp. z o.o.,Wynagrodzenie,\"styczeń, 2025\"\n",
		ParseOptions{})

	assert.Equal(t, 2, stmt.Total)
	assert.Empty(t, stmt.Skipped)
	require.Len(t, stmt.Rows, 2)

	first := stmt.Rows[0]
	assert.Equal(t, int64(101), first.ExternalID)
	assert.Equal(t, model.OpCardPayment, first.Type)
	assert.Equal(t, "-20.50", first.Amount.StringFixed(2))
	assert.Equal(t, "979.50", first.Balance.StringFixed(2))
	assert.Equal(t, model.CurrencyPLN, first.Currency)
	assert.Equal(t, "Biedronka", first.CounterpartName)
	assert.True(t, first.IssueDate.Equal(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)))

	second := stmt.Rows[1]
	assert.Equal(t, model.OpAccountDeposit, second.Type)
	assert.Equal(t, model.CurrencyPLN, second.Currency)
	assert.Equal(t, "PL61109010140000071219812874", second.CounterpartAccount)
	assert.Equal(t, "styczeń, 2025", second.Description2)
	assert.True(t, second.IssueDate.Equal(time.Date(2025, 1, 2, 8, 15, 0, 0, time.UTC)))
}

func TestStatementParser_DateLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2025-02-01":           time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		"2025-02-01T10:00:00Z": time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
		"02/01/2025":           time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := parseIssueDate(in, time.UTC)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
	}

	_, err := parseIssueDate("1 lutego 2025", time.UTC)
	assert.Error(t, err)
}

func TestStatementParser_LocationStoredAsUTC(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	stmt := parse(t, "1,,2025-01-03,płatność kartą,-1,PLN,0,,,,\n", ParseOptions{Location: cet})
	require.Len(t, stmt.Rows, 1)

	got := stmt.Rows[0].IssueDate
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC)))
}

func TestStatementParser_SkipsBadRows(t *testing.T) {
	stmt := parse(t, ""+
		"1,,2025-01-03,płatność kartą,-20.50,PLN,979.50,,,,\n"+
		"2,,2025-01-03,płatność kartą,abc,PLN,979.50,,,,\n"+
		"x,,2025-01-03,płatność kartą,1,PLN,1,,,,\n"+
		"4,,2025-01-03,opłata za kartę,1,PLN,1,,,,\n"+
		"5,,2025-01-03,płatność kartą,1,CHF,1,,,,\n"+
		"6,,someday,płatność kartą,1,PLN,1,,,,\n"+
		"7,,2025-01-03,płatność kartą\n"+
		"8,,2025-01-03,płatność kartą,3,EUR,4,,,,\n",
		ParseOptions{})

	assert.Equal(t, 8, stmt.Total)
	require.Len(t, stmt.Rows, 2)
	assert.Equal(t, int64(1), stmt.Rows[0].ExternalID)
	assert.Equal(t, int64(8), stmt.Rows[1].ExternalID)

	fields := make([]string, 0, len(stmt.Skipped))
	for _, e := range stmt.Skipped {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"amount", "external_id", "type", "currency", "issue_date", ""}, fields)
	assert.Equal(t, 3, stmt.Skipped[0].Line)
	assert.Equal(t, "abc", stmt.Skipped[0].Value)
}

func TestStatementParser_HeaderOnly(t *testing.T) {
	stmt := parse(t, "", ParseOptions{})
	assert.Zero(t, stmt.Total)
	assert.Empty(t, stmt.Rows)
}

func TestStatementParser_Empty(t *testing.T) {
	stmt, err := (&StatementParser{}).Parse(strings.NewReader(""), ParseOptions{})
	require.NoError(t, err)
	assert.Zero(t, stmt.Total)
}

func TestStatementParser_StrayQuotes(t *testing.T) {
	stmt := parse(t, ""+
		"1,,2025-01-03,płatność kartą,-899,PLN,0,,Sklep,Monitor 27\" LED,\n"+
		"2,a\"b,2025-01-03\n",
		ParseOptions{})

	assert.Equal(t, 2, stmt.Total)
	require.Len(t, stmt.Rows, 1)
	assert.Equal(t, `Monitor 27" LED`, stmt.Rows[0].Description)
	require.Len(t, stmt.Skipped, 1)
	assert.Equal(t, 3, stmt.Skipped[0].Line)
}

func TestStatementParser_ReaderFailure(t *testing.T) {
	_, err := (&StatementParser{}).Parse(iotest.ErrReader(errors.New("disk gone")), ParseOptions{})
	assert.ErrorIs(t, err, model.ErrDecodeFailure)
}

func TestStatementParser_CustomVocabulary(t *testing.T) {
	v, err := NewVocabulary(map[string]model.OperationType{"CARD": model.OpCardPayment})
	require.NoError(t, err)

	stmt := parse(t, ""+
		"1,,2025-01-03,card,-1,USD,0,,,,\n"+
		"2,,2025-01-03,płatność kartą,-1,USD,0,,,,\n",
		ParseOptions{Vocabulary: v})
	require.Len(t, stmt.Rows, 1)
	assert.Equal(t, model.CurrencyUSD, stmt.Rows[0].Currency)
	require.Len(t, stmt.Skipped, 1)
	assert.Equal(t, "type", stmt.Skipped[0].Field)
}
