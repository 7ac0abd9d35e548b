package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Header is the CSV header written by Export.
const Header = "id,account_id,seq,date,amount,balance,description,recipient,transfer_id"

const (
	numFields   = 9
	dateFormat  = "2006-01-02"
	colID       = 0
	colAcctID   = 1
	colSeq      = 2
	colDate     = 3
	colAmount   = 4
	colBalance  = 5
	colDesc     = 6
	colRecip    = 7
	colTransfer = 8
)

// Export writes entries (including header) as CSV.
func Export(w io.Writer, entries []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadEntries reads entries written by Export.
func ReadEntries(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var entries []model.Transaction
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MarshalEntry converts a Transaction to a CSV row.
func MarshalEntry(e model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatUint(uint64(e.ID), 10)
	row[colAcctID] = strconv.FormatUint(uint64(e.AccountID), 10)
	row[colSeq] = strconv.FormatInt(e.Seq, 10)
	row[colDate] = e.Date.Format(dateFormat)
	row[colAmount] = e.Amount.StringFixed(2)
	row[colBalance] = e.Balance.StringFixed(2)
	row[colDesc] = e.Description
	row[colRecip] = e.Recipient
	row[colTransfer] = e.TransferID
	return row
}

// UnmarshalEntry converts a CSV row to a Transaction.
func UnmarshalEntry(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := strconv.ParseUint(record[colID], 10, 64)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing id %q: %w", record[colID], err)
	}

	accountID, err := strconv.ParseUint(record[colAcctID], 10, 64)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing account_id %q: %w", record[colAcctID], err)
	}

	seq, err := strconv.ParseInt(record[colSeq], 10, 64)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing seq %q: %w", record[colSeq], err)
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	balance, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}

	return model.Transaction{
		ID:          uint(id),
		AccountID:   uint(accountID),
		Seq:         seq,
		Date:        date,
		Amount:      amount,
		Balance:     balance,
		Description: record[colDesc],
		Recipient:   record[colRecip],
		TransferID:  record[colTransfer],
	}, nil
}
