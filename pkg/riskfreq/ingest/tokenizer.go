package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/riskfreq/pkg/riskfreq/stoplist"
)

// DefaultMinLength is the shortest token kept.
const DefaultMinLength = 3

// WordNormalizer reduces a word to a canonical form (lemma, stem, synonym).
// Implementations must be deterministic.
type WordNormalizer interface {
	Normalize(word string) string
}

// Identity is the no-op WordNormalizer.
type Identity struct{}

// Normalize returns word unchanged.
func (Identity) Normalize(word string) string { return word }

// Verdict is the outcome of filtering one candidate token.
type Verdict int

const (
	Accepted Verdict = iota
	RejectedDigit
	RejectedShort
	RejectedStopword
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectedDigit:
		return "digit"
	case RejectedShort:
		return "short"
	case RejectedStopword:
		return "stopword"
	default:
		return "unknown"
	}
}

// Observer is told about every filtering decision. Used for run metrics.
type Observer interface {
	ObserveToken(word string, v Verdict)
}

// Tokenizer splits content lines into accepted words.
type Tokenizer struct {
	stops      *stoplist.Manager
	normalizer WordNormalizer
	minLength  int
	observer   Observer
}

// NewTokenizer creates a tokenizer with the given stopword list
func NewTokenizer(stopwords []string) *Tokenizer {
	return NewTokenizerWithStoplist(stoplist.NewManager(stopwords))
}

// NewTokenizerWithStoplist creates a tokenizer backed by an existing stoplist.
func NewTokenizerWithStoplist(stops *stoplist.Manager) *Tokenizer {
	return &Tokenizer{
		stops:      stops,
		normalizer: Identity{},
		minLength:  DefaultMinLength,
	}
}

// SetNormalizer assigns the word normalizer applied before filtering.
// A nil normalizer restores Identity.
func (t *Tokenizer) SetNormalizer(n WordNormalizer) {
	if n == nil {
		n = Identity{}
	}
	t.normalizer = n
}

// SetMinLength changes the minimum token length, counted in runes.
func (t *Tokenizer) SetMinLength(n int) {
	if n < 1 {
		n = 1
	}
	t.minLength = n
}

// SetObserver registers an observer for filtering decisions.
func (t *Tokenizer) SetObserver(o Observer) {
	t.observer = o
}

// Tokenize lowercases a normalized content line, splits it on whitespace and
// returns the accepted words in line order.
func (t *Tokenizer) Tokenize(line string) []string {
	var tokens []string
	for _, raw := range strings.Fields(strings.ToLower(line)) {
		word := t.normalizer.Normalize(cleanToken(raw))
		v := t.verdict(word)
		if t.observer != nil {
			t.observer.ObserveToken(word, v)
		}
		if v == Accepted {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

func (t *Tokenizer) verdict(word string) Verdict {
	if hasDigit(word) {
		return RejectedDigit
	}
	if utf8.RuneCountInString(word) < t.minLength {
		return RejectedShort
	}
	if t.stops.IsStop(word) {
		return RejectedStopword
	}
	return Accepted
}

// cleanToken strips leading/trailing hyphens and normalizes consecutive hyphens
func cleanToken(token string) string {
	token = strings.Trim(token, "-")

	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}

	return token
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	t.stops.Add(word, stoplist.Configured)
}

// RemoveStopword removes a word from the stopword list
func (t *Tokenizer) RemoveStopword(word string) {
	t.stops.Remove(word)
}
