package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationTypeNames(t *testing.T) {
	for _, op := range OperationTypes() {
		parsed, err := ParseOperationType(op.String())
		require.NoError(t, err, "operation type %d", op)
		assert.Equal(t, op, parsed)
	}
}

func TestOperationTypeText(t *testing.T) {
	var op OperationType
	require.NoError(t, op.UnmarshalText([]byte(" Card_Payment ")))
	assert.Equal(t, OpCardPayment, op)

	b, err := OpATMWithdrawal.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "atm_withdrawal", string(b))

	_, err = OperationType(42).MarshalText()
	assert.Error(t, err)
	assert.Error(t, op.UnmarshalText([]byte("lottery_win")))
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want Currency
	}{
		{"PLN", CurrencyPLN},
		{"eur", CurrencyEUR},
		{" usd ", CurrencyUSD},
		{"Gbp", CurrencyGBP},
	}
	for _, tt := range tests {
		got, err := ParseCurrency(tt.in)
		require.NoError(t, err, "input: %q", tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseCurrency("CHF")
	assert.Error(t, err)
}

func TestTransactionIsLeg(t *testing.T) {
	assert.False(t, Transaction{}.IsLeg())
	assert.True(t, Transaction{TransferID: "b7f0c1d2"}.IsLeg())
}
