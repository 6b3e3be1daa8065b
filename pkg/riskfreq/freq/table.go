// Package freq counts words for one document and ranks them deterministically.
package freq

import "sort"

// Count is one ranked word.
type Count struct {
	Word  string
	Count int
}

// Table maps words to counts and remembers first-insertion order so that ties
// rank reproducibly. A Table belongs to a single document.
type Table struct {
	index   map[string]int // word -> position in entries
	entries []Count
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Record increments the count for word, inserting it at 1 if absent.
func (t *Table) Record(word string) {
	if i, ok := t.index[word]; ok {
		t.entries[i].Count++
		return
	}
	t.index[word] = len(t.entries)
	t.entries = append(t.entries, Count{Word: word, Count: 1})
}

// Get returns the count for word.
func (t *Table) Get(word string) int {
	if i, ok := t.index[word]; ok {
		return t.entries[i].Count
	}
	return 0
}

// Len returns the number of distinct words.
func (t *Table) Len() int { return len(t.entries) }

// Total returns the number of recorded tokens.
func (t *Table) Total() int {
	total := 0
	for _, e := range t.entries {
		total += e.Count
	}
	return total
}

// Rank returns words by count descending. Equal counts keep first-insertion order.
// The returned slice is a copy.
func (t *Table) Rank() []Count {
	ranked := make([]Count, len(t.entries))
	copy(ranked, t.entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// Reset clears all entries. Safe to call repeatedly.
func (t *Table) Reset() {
	clear(t.index)
	t.entries = t.entries[:0]
}
