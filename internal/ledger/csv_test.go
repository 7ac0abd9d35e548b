package ledger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func TestExportReadEntries(t *testing.T) {
	entries := []model.Transaction{
		{ID: 3, AccountID: 1, Seq: 1, Date: date(2025, 1, 3), Amount: dec("500"), Balance: dec("500"), Description: "init"},
		{ID: 4, AccountID: 1, Seq: 2, Date: date(2025, 1, 4), Amount: dec("-120"), Balance: dec("380"),
			Description: "rent, january", Recipient: "Landlord", TransferID: "6f1c"},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, entries))
	assert.True(t, strings.HasPrefix(buf.String(), "id,account_id,"))
	assert.Contains(t, buf.String(), `"rent, january"`)

	got, err := ReadEntries(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range entries {
		assert.Equal(t, entries[i].ID, got[i].ID)
		assert.Equal(t, entries[i].Seq, got[i].Seq)
		assert.True(t, entries[i].Date.Equal(got[i].Date))
		assert.True(t, entries[i].Amount.Equal(got[i].Amount))
		assert.True(t, entries[i].Balance.Equal(got[i].Balance))
		assert.Equal(t, entries[i].Description, got[i].Description)
		assert.Equal(t, entries[i].Recipient, got[i].Recipient)
		assert.Equal(t, entries[i].TransferID, got[i].TransferID)
	}
}

func TestReadEntries_Empty(t *testing.T) {
	got, err := ReadEntries(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnmarshalEntry_BadAmount(t *testing.T) {
	row := MarshalEntry(model.Transaction{ID: 1, AccountID: 1, Seq: 1, Date: date(2025, 1, 1)})
	row[colAmount] = "abc"
	_, err := UnmarshalEntry(row)
	assert.ErrorContains(t, err, "parsing amount")
}
