package lexicon

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon maps word variants to a canonical form so inflections of the same
// word are counted together:
//
//	"regulations", "regulatory" -> "regulation"
//	"litigation", "lawsuits"    -> "litigation"
//
// It satisfies the tokenizer's word-normalizer contract.
type Lexicon struct {
	// canonical -> all variants (including canonical itself)
	synonyms map[string][]string

	// variant -> canonical
	reverseIndex map[string]string
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		synonyms:     make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// LoadFromYAML loads synonym mappings from a YAML file.
//
// Expected format:
//
//	synonyms:
//	  - canonical: regulation
//	    variants: [regulations, regulatory, regulators]
//	  - canonical: product
//	    variants: [products]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config struct {
		Synonyms []struct {
			Canonical string   `yaml:"canonical"`
			Variants  []string `yaml:"variants"`
		} `yaml:"synonyms"`
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := New()
	for _, entry := range config.Synonyms {
		if strings.TrimSpace(entry.Canonical) == "" {
			continue
		}
		lex.AddSynonymGroup(entry.Canonical, entry.Variants)
	}

	return lex, nil
}

// AddSynonymGroup adds a synonym group with a canonical form and its variants.
// The canonical form is always included as the first entry in the variants list.
// If the group already exists, old reverse index entries are cleaned up first.
func (l *Lexicon) AddSynonymGroup(canonical string, variants []string) {
	canonical = strings.ToLower(canonical)

	if oldVariants, exists := l.synonyms[canonical]; exists {
		for _, oldV := range oldVariants {
			delete(l.reverseIndex, oldV)
		}
	}

	normalized := make([]string, 0, len(variants)+1)
	seen := make(map[string]bool)

	normalized = append(normalized, canonical)
	seen[canonical] = true

	for _, v := range variants {
		v = strings.ToLower(v)
		if !seen[v] {
			normalized = append(normalized, v)
			seen[v] = true
		}
	}

	l.synonyms[canonical] = normalized

	for _, v := range normalized {
		l.reverseIndex[v] = canonical
	}
}

// Normalize returns the canonical form of a word.
// If the word is not in the lexicon, returns the word itself.
func (l *Lexicon) Normalize(word string) string {
	word = strings.ToLower(word)
	if canonical, ok := l.reverseIndex[word]; ok {
		return canonical
	}
	return word
}

// Variants returns all known variants of a word (including the canonical form).
// If the word is not in the lexicon, returns a slice containing only the word itself.
func (l *Lexicon) Variants(word string) []string {
	word = strings.ToLower(word)

	if variants, ok := l.synonyms[word]; ok {
		return variants
	}

	if canonical, ok := l.reverseIndex[word]; ok {
		if variants, ok := l.synonyms[canonical]; ok {
			return variants
		}
	}

	return []string{word}
}

// HasSynonyms returns true if the word has synonyms/variants in the lexicon.
func (l *Lexicon) HasSynonyms(word string) bool {
	_, exists := l.reverseIndex[strings.ToLower(word)]
	return exists
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() LexiconStats {
	totalVariants := 0
	for _, variants := range l.synonyms {
		totalVariants += len(variants)
	}

	return LexiconStats{
		SynonymGroups: len(l.synonyms),
		TotalVariants: totalVariants,
	}
}

// LexiconStats holds statistics about lexicon contents.
type LexiconStats struct {
	SynonymGroups int // Number of canonical forms (synonym groups)
	TotalVariants int // Total number of variants across all groups
}
