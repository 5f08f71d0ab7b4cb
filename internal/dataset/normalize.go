package dataset

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeColumn folds a column label into its canonical form: trimmed,
// accents removed, non-ASCII dropped, lowercased, and every whitespace run
// replaced by spaceRepl ("" removes spaces, so "Data Notificação" becomes
// "datanotificacao"). Normalizing an already normalized label is a no-op.
func NormalizeColumn(name, spaceRepl string) string {
	s := strings.ToLower(foldASCII(name))
	return strings.Join(strings.Fields(s), strings.ToLower(foldASCII(spaceRepl)))
}

// NormalizeColumns applies NormalizeColumn to every header label.
func NormalizeColumns(header []string, spaceRepl string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = NormalizeColumn(h, spaceRepl)
	}
	return out
}

// foldASCII decomposes s (NFKD) and drops everything outside ASCII, which
// strips accents and turns the BOM of Excel exports into nothing.
func foldASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
