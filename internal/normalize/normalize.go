// Package normalize provides the pure canonicalization helpers shared by the
// ingestion pipeline and the registry matcher.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name canonicalizes a free-text party name: decompose, strip combining
// marks, uppercase, collapse whitespace runs, trim. An empty input yields an
// empty output, which callers must treat as "no match possible".
func Name(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	// Transformer chains are stateful, so build one per call.
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, s)
	if err != nil {
		stripped = s
	}

	return strings.Join(strings.Fields(strings.ToUpper(stripped)), " ")
}

// ProcessNumber reduces a process number to its digits, tolerating the
// punctuation differences between sources
// (e.g. "0001234-56.2024.8.11.0000" vs "000123456202481100000").
func ProcessNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
