// Package normalize folds free text into the form used for term index keys
// and lookups: NFKC, case folded, format characters removed, fullwidth
// forms narrowed, whitespace runs collapsed to one space and trimmed.
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Cf)), // zero-width joiners, BOM
			width.Fold,
		)
	},
}

// Term returns the normalized form of s. Safe for concurrent use.
func Term(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = strings.ToLower(s)
	}

	return strings.Join(strings.Fields(ns), " ")
}

// Code strips everything but ASCII digits, so "8471.30.00 00" becomes
// "8471300000".
func Code(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
