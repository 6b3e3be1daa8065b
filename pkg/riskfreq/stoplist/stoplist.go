package stoplist

import (
	"sort"
	"strings"
)

// Origin records where a stopword came from.
type Origin int

const (
	// Builtin words ship with the package (see Default).
	Builtin Origin = iota
	// Configured words were loaded from a stoplist file or config.
	Configured
)

// Manager holds the stopword set used by the tokenizer.
type Manager struct {
	stops map[string]Origin
}

// NewManager creates a manager seeded with the given configured stopwords.
func NewManager(initialStops []string) *Manager {
	m := &Manager{stops: make(map[string]Origin, len(initialStops))}
	for _, s := range initialStops {
		m.Add(s, Configured)
	}
	return m
}

// NewDefault creates a manager seeded with the built-in filing stoplist.
func NewDefault() *Manager {
	m := &Manager{stops: make(map[string]Origin, len(defaultTerms))}
	for _, s := range defaultTerms {
		m.Add(s, Builtin)
	}
	return m
}

// IsStop checks if a token is a stopword. Tokens are expected lowercase.
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Origin reports where a stopword came from.
func (m *Manager) Origin(token string) (Origin, bool) {
	o, ok := m.stops[token]
	return o, ok
}

// Add adds a token to the stoplist. Blank tokens are ignored.
func (m *Manager) Add(token string, origin Origin) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return
	}
	m.stops[token] = origin
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// Len returns the number of stopwords.
func (m *Manager) Len() int { return len(m.stops) }

// All returns all stopwords, sorted.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Default returns a copy of the built-in stoplist: common English function words
// plus filing boilerplate such as "company".
func Default() []string {
	out := make([]string, len(defaultTerms))
	copy(out, defaultTerms)
	return out
}

var defaultTerms = []string{
	"a", "able", "about", "across", "after", "all", "almost",
	"also", "am", "among", "an", "and", "any", "are", "as",
	"at", "be", "because", "been", "but", "by", "can", "cannot",
	"company", "companys", "could", "dear", "did", "do", "does", "either",
	"else", "ever", "every", "for", "from", "get", "got", "had", "has",
	"have", "he", "her", "hers", "him", "his", "how", "however",
	"i", "if", "in", "into", "is", "it", "its", "just", "least",
	"let", "like", "likely", "may", "me", "might", "most",
	"must", "my", "neither", "new", "no", "nor", "not", "of", "off",
	"often", "on", "only", "or", "other", "our", "own", "rather",
	"said", "say", "says", "she", "should", "since", "so", "some",
	"such", "than", "that", "the", "their", "them", "then", "there",
	"these", "they", "this", "tis", "to", "too", "twas", "us",
	"wants", "was", "we", "were", "what", "when", "where", "which",
	"while", "who", "whom", "why", "will", "with", "would", "yet",
	"you", "your",
}
