package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// StatementParser parses retail-bank CSV statements: comma separated, one
// header row, eleven or more columns.
type StatementParser struct{}

const (
	stmtMinFields      = 11
	stmtColExternalID  = 0
	stmtColIssueDate   = 2
	stmtColType        = 3
	stmtColAmount      = 4
	stmtColCurrency    = 5
	stmtColBalance     = 6
	stmtColCounterAcct = 7
	stmtColCounterName = 8
	stmtColDesc        = 9
	stmtColDesc2       = 10
)

// Date layouts accepted for the issue date, tried in order.
var stmtDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// Format returns the parser name.
func (p *StatementParser) Format() string { return "inteligo" }

// Parse reads a statement. Quotes are read leniently, so free text with a
// stray quote stays in its field. Rows the CSV reader rejects, rows that are
// too short, carry an unknown operation label or fail field validation are
// reported in Skipped; only a failure of the underlying reader is an error.
func (p *StatementParser) Parse(r io.Reader, opts ParseOptions) (*Statement, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	stmt := &Statement{}
	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			if header {
				return nil, fmt.Errorf("reading statement header: %v: %w", err, model.ErrDecodeFailure)
			}
			stmt.Total++
			stmt.Skipped = append(stmt.Skipped, RowError{Line: perr.StartLine, Err: perr.Err})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading statement CSV: %v: %w", err, model.ErrDecodeFailure)
		}
		if header {
			header = false
			continue
		}

		line, _ := cr.FieldPos(0)
		stmt.Total++
		row, rowErr := parseStatementRow(rec, line, opts)
		if rowErr != nil {
			stmt.Skipped = append(stmt.Skipped, *rowErr)
			continue
		}
		stmt.Rows = append(stmt.Rows, row)
	}
	return stmt, nil
}

func parseStatementRow(rec []string, line int, opts ParseOptions) (model.ImportedTransaction, *RowError) {
	skip := func(field, value string, err error) *RowError {
		return &RowError{Line: line, Field: field, Value: value, Err: err}
	}

	if len(rec) < stmtMinFields {
		return model.ImportedTransaction{}, skip("", "", fmt.Errorf("expected at least %d fields, got %d", stmtMinFields, len(rec)))
	}

	extID, err := strconv.ParseInt(strings.TrimSpace(rec[stmtColExternalID]), 10, 64)
	if err != nil {
		return model.ImportedTransaction{}, skip("external_id", rec[stmtColExternalID], err)
	}

	opType, ok := opts.Vocabulary.Lookup(rec[stmtColType])
	if !ok {
		return model.ImportedTransaction{}, skip("type", rec[stmtColType], errors.New("unmapped operation label"))
	}

	issued, err := parseIssueDate(rec[stmtColIssueDate], opts.Location)
	if err != nil {
		return model.ImportedTransaction{}, skip("issue_date", rec[stmtColIssueDate], err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec[stmtColAmount]))
	if err != nil {
		return model.ImportedTransaction{}, skip("amount", rec[stmtColAmount], err)
	}

	currency, err := model.ParseCurrency(rec[stmtColCurrency])
	if err != nil {
		return model.ImportedTransaction{}, skip("currency", rec[stmtColCurrency], err)
	}

	balance, err := decimal.NewFromString(strings.TrimSpace(rec[stmtColBalance]))
	if err != nil {
		return model.ImportedTransaction{}, skip("balance", rec[stmtColBalance], err)
	}

	return model.ImportedTransaction{
		ExternalID:         extID,
		IssueDate:          issued,
		Type:               opType,
		Amount:             amount,
		Currency:           currency,
		Balance:            balance,
		CounterpartAccount: strings.TrimSpace(rec[stmtColCounterAcct]),
		CounterpartName:    strings.TrimSpace(rec[stmtColCounterName]),
		Description:        strings.TrimSpace(rec[stmtColDesc]),
		Description2:       strings.TrimSpace(rec[stmtColDesc2]),
	}, nil
}

func parseIssueDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range stmtDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("no known date layout matches %q", s)
}
