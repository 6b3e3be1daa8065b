package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
	"github.com/cognicore/riskfreq/pkg/riskfreq/store"
)

// Store is an in-memory implementation of store.Store for tests and dry runs.
type Store struct {
	mu       sync.RWMutex
	rankings map[int]store.Ranking
	saves    []int // years in save order
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{rankings: make(map[int]store.Ranking)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRanking stores a copy of r, replacing any ranking for the same year.
func (s *Store) SaveRanking(ctx context.Context, r store.Ranking) error {
	if r.Year <= 0 {
		return fmt.Errorf("%w: ranking year %d", internalerr.ErrInvalidInput, r.Year)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rankings[r.Year] = copyRanking(r, 0)
	s.saves = append(s.saves, r.Year)
	return nil
}

// GetRanking returns a copy of the ranking for year.
func (s *Store) GetRanking(ctx context.Context, year int, limit int) (store.Ranking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rankings[year]
	if !ok {
		return store.Ranking{}, fmt.Errorf("ranking %d: %w", year, internalerr.ErrNotFound)
	}
	return copyRanking(r, limit), nil
}

// Years lists years with a saved ranking.
func (s *Store) Years(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	years := make([]int, 0, len(s.rankings))
	for y := range s.rankings {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

// SaveOrder returns the years in the order SaveRanking was called.
func (s *Store) SaveOrder() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int, len(s.saves))
	copy(out, s.saves)
	return out
}

func copyRanking(r store.Ranking, limit int) store.Ranking {
	entries := r.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := r
	out.Entries = append([]store.Entry(nil), entries...)
	return out
}
