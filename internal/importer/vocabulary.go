package importer

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/cleared-dev/tally/internal/model"
)

// Vocabulary maps bank operation labels to operation types. It is never
// modified after construction and may be shared between goroutines.
type Vocabulary struct {
	labels map[string]model.OperationType
}

// defaultLabels are the operation labels found in Polish retail statements.
var defaultLabels = map[string]model.OperationType{
	"zlecenie stałe":                     model.OpStandingOrder,
	"płatność web - kod mobilny":         model.OpWebPaymentMobileCode,
	"przelew na rachunek":                model.OpAccountTransfer,
	"płatność kartą":                     model.OpCardPayment,
	"przelew na telefon przychodz. zew.": model.OpIncomingPhoneTransferExternal,
	"przelew na telefon wychodzący zew.": model.OpOutgoingPhoneTransferExternal,
	"zakup w terminalu - kod mobilny":    model.OpTerminalPurchaseMobileCode,
	"wypłata z bankomatu":                model.OpATMWithdrawal,
	"przelew z rachunku":                 model.OpAccountDeposit,
}

// NewVocabulary builds a vocabulary from label to type pairs. Two labels
// that normalise to the same key must agree on the type.
func NewVocabulary(labels map[string]model.OperationType) (*Vocabulary, error) {
	v := &Vocabulary{labels: make(map[string]model.OperationType, len(labels))}
	if err := v.add(labels); err != nil {
		return nil, err
	}
	return v, nil
}

// DefaultVocabulary returns the built-in Polish vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, err := NewVocabulary(defaultLabels)
	if err != nil {
		panic(err)
	}
	return v
}

// With returns a new vocabulary holding v's labels plus extra. Labels in
// extra replace existing ones.
func (v *Vocabulary) With(extra map[string]model.OperationType) (*Vocabulary, error) {
	out := &Vocabulary{labels: make(map[string]model.OperationType, len(v.labels)+len(extra))}
	for k, t := range v.labels {
		out.labels[k] = t
	}
	for label := range extra {
		delete(out.labels, NormalizeLabel(label))
	}
	if err := out.add(extra); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup classifies a label as it appears in a statement.
func (v *Vocabulary) Lookup(label string) (model.OperationType, bool) {
	t, ok := v.labels[NormalizeLabel(label)]
	return t, ok
}

// Len returns the number of distinct labels.
func (v *Vocabulary) Len() int { return len(v.labels) }

func (v *Vocabulary) add(labels map[string]model.OperationType) error {
	for label, t := range labels {
		if _, err := t.MarshalText(); err != nil {
			return fmt.Errorf("label %q: %w", label, err)
		}
		key := NormalizeLabel(label)
		if key == "" {
			return fmt.Errorf("empty label for %s", t)
		}
		if prev, ok := v.labels[key]; ok && prev != t {
			return fmt.Errorf("label %q maps to both %s and %s", label, prev, t)
		}
		v.labels[key] = t
	}
	return nil
}

// NormalizeLabel puts a label in canonical form: NFC, case folded, trimmed
// and with inner whitespace collapsed to single spaces.
func NormalizeLabel(label string) string {
	s := cases.Fold().String(norm.NFC.String(label))
	return strings.Join(strings.Fields(s), " ")
}
