package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ImportedTransaction is a statement row as reported by the bank. Rows are
// write-once; only TransactionID is set after the matching ledger entry exists.
type ImportedTransaction struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	AccountID          uint            `gorm:"not null;uniqueIndex:idx_imported_account_external,priority:1" json:"account_id"`
	ExternalID         int64           `gorm:"not null;uniqueIndex:idx_imported_account_external,priority:2" json:"external_id"`
	IssueDate          time.Time       `gorm:"not null;index" json:"issue_date"`
	Type               OperationType   `gorm:"not null" json:"type"`
	Amount             decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Currency           Currency        `gorm:"size:3;not null" json:"currency"`
	Balance            decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"balance"`
	CounterpartAccount string          `gorm:"size:64" json:"counterpart_account"`
	CounterpartName    string          `gorm:"size:256" json:"counterpart_name"`
	Description        string          `gorm:"size:512" json:"description"`
	Description2       string          `gorm:"size:512" json:"description2"`
	TransactionID      *uint           `gorm:"index" json:"transaction_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// OperationType classifies a statement row.
type OperationType int16

const (
	OpStandingOrder                 OperationType = 1
	OpWebPaymentMobileCode          OperationType = 2
	OpAccountTransfer               OperationType = 3
	OpCardPayment                   OperationType = 4
	OpIncomingPhoneTransferExternal OperationType = 5
	OpOutgoingPhoneTransferExternal OperationType = 6
	OpTerminalPurchaseMobileCode    OperationType = 7
	OpATMWithdrawal                 OperationType = 8
	OpAccountDeposit                OperationType = 9
)

var operationTypeNames = map[OperationType]string{
	OpStandingOrder:                 "standing_order",
	OpWebPaymentMobileCode:          "web_payment_mobile_code",
	OpAccountTransfer:               "account_transfer",
	OpCardPayment:                   "card_payment",
	OpIncomingPhoneTransferExternal: "incoming_phone_transfer_external",
	OpOutgoingPhoneTransferExternal: "outgoing_phone_transfer_external",
	OpTerminalPurchaseMobileCode:    "terminal_purchase_mobile_code",
	OpATMWithdrawal:                 "atm_withdrawal",
	OpAccountDeposit:                "account_deposit",
}

// OperationTypes lists every known operation type in ascending order.
func OperationTypes() []OperationType {
	return []OperationType{
		OpStandingOrder,
		OpWebPaymentMobileCode,
		OpAccountTransfer,
		OpCardPayment,
		OpIncomingPhoneTransferExternal,
		OpOutgoingPhoneTransferExternal,
		OpTerminalPurchaseMobileCode,
		OpATMWithdrawal,
		OpAccountDeposit,
	}
}

func (t OperationType) String() string {
	if name, ok := operationTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("operation_type(%d)", int16(t))
}

// ParseOperationType resolves a snake_case operation type name.
func ParseOperationType(name string) (OperationType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range operationTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown operation type %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (t OperationType) MarshalText() ([]byte, error) {
	if _, ok := operationTypeNames[t]; !ok {
		return nil, fmt.Errorf("unknown operation type %d", int16(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *OperationType) UnmarshalText(b []byte) error {
	parsed, err := ParseOperationType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Currency is an ISO 4217 code. Amounts are recorded in their currency and
// never converted.
type Currency string

const (
	CurrencyPLN Currency = "PLN"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

// ParseCurrency resolves a currency code case-insensitively.
func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(s))); c {
	case CurrencyPLN, CurrencyEUR, CurrencyUSD, CurrencyGBP:
		return c, nil
	default:
		return "", fmt.Errorf("unknown currency %q", s)
	}
}
