package importer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"

	"github.com/cleared-dev/tally/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns raw statement bytes into text. UTF-8 is tried first; when
// that yields replacement characters the legacy Windows code page for locale
// is used instead. Bytes the code page leaves undefined stay as U+FFFD in
// their field, so only the rows holding them can fail validation. Binary
// input, recognised by NUL bytes, fails with model.ErrDecodeFailure.
func Decode(raw []byte, locale string) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if bytes.IndexByte(raw, 0) >= 0 {
		return "", fmt.Errorf("statement contains NUL bytes: %w", model.ErrDecodeFailure)
	}

	text := strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	if !strings.ContainsRune(text, utf8.RuneError) {
		return text, nil
	}

	cm := CodePage(locale)
	decoded, err := cm.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding as %s: %v: %w", cm, err, model.ErrDecodeFailure)
	}
	return string(decoded), nil
}

// CodePage returns the Windows code page used by bank exports for locale.
// Unknown or unparsable locales get windows-1252.
func CodePage(locale string) *charmap.Charmap {
	tag, err := language.Parse(locale)
	if err != nil {
		return charmap.Windows1252
	}
	base, _ := tag.Base()
	switch base.String() {
	case "pl", "cs", "sk", "hu", "sl", "hr", "ro":
		return charmap.Windows1250
	case "ru", "uk", "bg":
		return charmap.Windows1251
	default:
		return charmap.Windows1252
	}
}
