// Package normalize cleans raw filing text lines into the canonical form used for
// section matching and tokenization.
//
// A normalized line has ordinary single spaces between words, plain ASCII hyphens in
// place of typographic dashes, and no punctuation, symbol or control characters other
// than the hyphen. In ASCII mode every remaining non-ASCII rune is folded or dropped.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options configures a Normalizer.
type Options struct {
	// ASCII folds accented letters to their base form and drops every other
	// non-ASCII rune.
	ASCII bool
}

// Normalizer turns raw lines into normalized lines. It holds no per-line state.
type Normalizer struct {
	ascii bool
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	return &Normalizer{ascii: opts.ASCII}
}

// spaceReplacer maps non-breaking and typographic spaces, and the forward slash,
// to an ordinary space so adjacent words are never glued together.
var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ", "\u2000", " ", "\u2001", " ", "\u2002", " ",
	"\u2003", " ", "\u2004", " ", "\u2005", " ", "\u2006", " ",
	"\u2007", " ", "\u2008", " ", "\u2009", " ", "\u200a", " ",
	"\u200b", " ", "\u202f", " ", "\u205f", " ", "\u3000", " ",
	"\ufeff", " ",
	"/", " ",
)

var dashReplacer = strings.NewReplacer(
	"\u2010", "-", "\u2011", "-", "\u2012", "-", "\u2013", "-",
	"\u2014", "-", "\u2015", "-", "\u2212", "-", "\ufe58", "-",
	"\ufe63", "-", "\uff0d", "-",
)

// Line normalizes one raw line. The boolean is false when the raw line is blank
// and should be skipped entirely.
//
// A non-blank line may still normalize to the empty string (for example a line
// holding only a bullet glyph); it is returned with ok == true so the caller
// still sees it as a line.
func (n *Normalizer) Line(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}

	line := norm.NFKC.String(raw)
	line = spaceReplacer.Replace(line)
	line = strings.TrimSpace(line)
	line = dashReplacer.Replace(line)
	line = stripPunct(line)

	if n.ascii {
		line = toASCII(line)
	}
	return line, true
}

// stripPunct removes punctuation, symbols and control characters except '-',
// collapsing whitespace runs to a single space.
func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false

	for _, r := range s {
		switch {
		case r == '-':
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		case unicode.IsPunct(r), unicode.IsSymbol(r), unicode.IsControl(r),
			unicode.Is(unicode.Cf, r), r == unicode.ReplacementChar:
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(isNonASCII)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(out), " ")
}

func isNonASCII(r rune) bool {
	return r > unicode.MaxASCII
}
