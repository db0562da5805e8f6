package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes to NFD, drops combining marks, and recomposes,
// so "México" and "Mexico" produce the same bytes.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey converts free text into the canonical key used by every
// name-based gazetteer index: accent-folded, lowercased, trimmed, internal
// whitespace collapsed, punctuation removed except hyphen and comma (both
// appear inside compound place names like "Winston-Salem" and
// "Springfield, Illinois").
//
// Any input produces a key; there is no failure mode. Empty input yields "".
func NormalizeKey(text string) string {
	if text == "" {
		return ""
	}
	folded, _, err := transform.String(stripAccents, text)
	if err != nil {
		// Invalid UTF-8 still has to produce a key; fall back to the raw bytes.
		folded = text
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == ',' || r == '_':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
