package scan

import (
	"strings"
	"unicode"
)

// Marker decides whether a normalized line carries a section boundary.
type Marker interface {
	Match(line string) bool
}

// MarkerFunc adapts a plain function to the Marker interface.
type MarkerFunc func(line string) bool

// Match implements Marker.
func (f MarkerFunc) Match(line string) bool { return f(line) }

// SuffixMarker matches lines that end with a phrase. Whitespace is ignored on both
// sides, so "Risk Factors" also matches "RiskFactors" and "Risk   Factors".
// Matching is case-sensitive.
type SuffixMarker struct {
	phrase string
}

// Suffix builds a SuffixMarker for phrase.
func Suffix(phrase string) SuffixMarker {
	return SuffixMarker{phrase: squash(phrase)}
}

// Match implements Marker.
func (m SuffixMarker) Match(line string) bool {
	return m.phrase != "" && strings.HasSuffix(squash(line), m.phrase)
}

// PrefixMarker matches lines that begin with a phrase, ignoring whitespace.
// Matching is case-sensitive.
type PrefixMarker struct {
	phrase string
}

// Prefix builds a PrefixMarker for phrase.
func Prefix(phrase string) PrefixMarker {
	return PrefixMarker{phrase: squash(phrase)}
}

// Match implements Marker.
func (m PrefixMarker) Match(line string) bool {
	return m.phrase != "" && strings.HasPrefix(squash(line), m.phrase)
}

// squash drops every whitespace rune.
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// startsWithDigit reports whether the line opens with an ASCII digit, which is
// how a table-of-contents page number looks after normalization.
func startsWithDigit(line string) bool {
	return line != "" && line[0] >= '0' && line[0] <= '9'
}
