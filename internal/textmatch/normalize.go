// Package textmatch canonicalizes free text and scores how alike two strings
// are. It is tuned for Turkish names as they appear in bank narrations
// ("MEHMET YILMAZ ÖDEME", "Ayşe Çelik aralık aidat").
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTable maps Turkish letters to their base-Latin equivalents. Upper-case
// entries are kept so the table is complete on its own.
var foldTable = map[rune]rune{
	'ç': 'c', 'Ç': 'c',
	'ğ': 'g', 'Ğ': 'g',
	'ı': 'i', 'İ': 'i', 'I': 'i',
	'ö': 'o', 'Ö': 'o',
	'ş': 's', 'Ş': 's',
	'ü': 'u', 'Ü': 'u',
}

// Normalize lower-cases s, folds Turkish letters, strips remaining diacritics,
// turns punctuation into spaces and collapses whitespace. It is pure and
// idempotent; an empty input yields "".
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	lowered := cases.Lower(language.Turkish).String(s)
	folded := strings.Map(func(r rune) rune {
		if f, ok := foldTable[r]; ok {
			return f
		}
		return r
	}, lowered)

	stripped, _, err := transform.String(stripMarks(), folded)
	if err != nil {
		stripped = folded
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, stripped)

	return strings.Join(strings.Fields(cleaned), " ")
}

// stripMarks decomposes, drops combining marks and recomposes. Transformers
// carry state, so a fresh chain is built per call.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
