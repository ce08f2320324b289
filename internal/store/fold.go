package store

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fieldSep separates the fields joined into a sign's search text so a query
// never matches across two fields.
const fieldSep = "\n"

// fold lowers s and strips diacritics, so "Número" and "numero" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func searchText(s Sign) string {
	fields := append([]string{s.Sign, s.Description}, s.Tags...)
	return fold(strings.Join(fields, fieldSep))
}
