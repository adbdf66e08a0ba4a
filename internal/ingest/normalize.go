package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Normalize trims s and folds full-width letters, digits and punctuation to
// their half-width forms.
func Normalize(s string) string {
	return strings.TrimSpace(width.Narrow.String(s))
}

// NormalizeRegNum normalizes a registration number: width folding, removal of
// inner whitespace and upper-casing of the check letters.
func NormalizeRegNum(s string) string {
	narrow := Normalize(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, narrow)
}
