package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one ledger entry. Entries of an account are ordered by Seq
// and Balance is the running total up to and including the entry.
type Transaction struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	AccountID             uint            `gorm:"not null;uniqueIndex:idx_transactions_account_seq,priority:1" json:"account_id"`
	Seq                   int64           `gorm:"not null;uniqueIndex:idx_transactions_account_seq,priority:2" json:"seq"`
	Amount                decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"` // negative = debit, positive = credit
	Balance               decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"balance"`
	Date                  time.Time       `gorm:"not null" json:"date"`
	Description           string          `gorm:"size:512" json:"description"`
	Recipient             string          `gorm:"size:256" json:"recipient"`
	TransferID            string          `gorm:"size:36;index" json:"transfer_id,omitempty"` // empty unless a transfer leg
	ImportedTransactionID *uint           `gorm:"index" json:"imported_transaction_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// IsLeg reports whether the entry is one half of a transfer.
func (t Transaction) IsLeg() bool {
	return t.TransferID != ""
}

// Transfer is the logical view over a pair of legs sharing a TransferID.
// It has no table of its own.
type Transfer struct {
	ID              string          `json:"id"`
	SourceAccountID uint            `json:"source_account_id"`
	TargetAccountID uint            `json:"target_account_id"`
	Value           decimal.Decimal `json:"value"`
	Description     string          `json:"description"`
	Debit           Transaction     `json:"debit"`
	Credit          Transaction     `json:"credit"`
}
