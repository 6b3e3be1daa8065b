package lexicon

import "strings"

// Stemmer is a light suffix-stripping normalizer. It folds common English
// inflections ("risks", "regulations", "companies") onto a shared stem.
// Hyphenated compounds are left alone.
type Stemmer struct{}

type suffixRule struct {
	suffix      string
	replacement string
	minLen      int
}

// Rules are tried in order; the first suffix that leaves a stem of at least
// minLen bytes wins.
var suffixRules = []suffixRule{
	{"ational", "ate", 3},
	{"tional", "tion", 3},
	{"encies", "ence", 3},
	{"ances", "ance", 3},
	{"ments", "ment", 3},
	{"izing", "ize", 3},
	{"ating", "ate", 3},
	{"ously", "ous", 3},
	{"ively", "ive", 3},
	{"ies", "y", 3},
	{"ing", "", 4},
	{"sses", "ss", 3},
	{"ss", "ss", 2},
	{"us", "us", 2},
	{"is", "is", 2},
	{"ed", "", 4},
	{"es", "e", 4},
	{"s", "", 3},
}

// Normalize returns the stem of word.
func (Stemmer) Normalize(word string) string {
	word = strings.ToLower(word)
	if strings.Contains(word, "-") {
		return word
	}
	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			stem := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(stem) >= rule.minLen {
				return stem
			}
		}
	}
	return word
}

// Chain applies word normalizers in order.
type Chain []interface{ Normalize(string) string }

// Normalize runs every normalizer in order.
func (c Chain) Normalize(word string) string {
	for _, n := range c {
		word = n.Normalize(word)
	}
	return word
}
