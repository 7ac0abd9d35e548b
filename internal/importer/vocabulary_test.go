package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "płatność kartą", NormalizeLabel("  PŁATNOŚĆ   Kartą "))
	// Combining accents compose to the precomposed letters.
	assert.Equal(t, "płatność kartą", NormalizeLabel("p\u0142atnos\u0301c\u0301 karta\u0328"))
}

func TestDefaultVocabulary(t *testing.T) {
	v := DefaultVocabulary()
	assert.Equal(t, 9, v.Len())

	got, ok := v.Lookup("Wypłata z bankomatu")
	require.True(t, ok)
	assert.Equal(t, model.OpATMWithdrawal, got)

	got, ok = v.Lookup("przelew na telefon przychodz. zew.")
	require.True(t, ok)
	assert.Equal(t, model.OpIncomingPhoneTransferExternal, got)

	_, ok = v.Lookup("opłata za kartę")
	assert.False(t, ok)
}

func TestVocabulary_WithDoesNotMutate(t *testing.T) {
	base := DefaultVocabulary()
	ext, err := base.With(map[string]model.OperationType{
		"card payment":   model.OpCardPayment,
		"płatność kartą": model.OpWebPaymentMobileCode,
	})
	require.NoError(t, err)

	got, ok := ext.Lookup("CARD PAYMENT")
	require.True(t, ok)
	assert.Equal(t, model.OpCardPayment, got)

	got, _ = ext.Lookup("płatność kartą")
	assert.Equal(t, model.OpWebPaymentMobileCode, got)

	_, ok = base.Lookup("card payment")
	assert.False(t, ok)
	got, _ = base.Lookup("płatność kartą")
	assert.Equal(t, model.OpCardPayment, got)
}

func TestNewVocabulary_Conflict(t *testing.T) {
	_, err := NewVocabulary(map[string]model.OperationType{
		"ATM":  model.OpATMWithdrawal,
		"atm ": model.OpCardPayment,
	})
	assert.ErrorContains(t, err, "maps to both")
}

func TestNewVocabulary_UnknownType(t *testing.T) {
	_, err := NewVocabulary(map[string]model.OperationType{"x": 42})
	assert.Error(t, err)
}
