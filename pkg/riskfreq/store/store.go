package store

import (
	"context"
	"time"
)

// Sink receives one ranked document at a time.
type Sink interface {
	SaveRanking(ctx context.Context, r Ranking) error
}

// Store is a Sink that can also be queried and closed.
type Store interface {
	Sink
	Close() error

	// GetRanking returns the ranking saved for year, truncated to limit entries
	// when limit > 0. It returns internalerr.ErrNotFound when no ranking exists.
	GetRanking(ctx context.Context, year int, limit int) (Ranking, error)

	// Years lists years with a saved ranking, ascending.
	Years(ctx context.Context) ([]int, error)
}

// Entry is one (year, word, count) row.
type Entry struct {
	Year  int
	Word  string
	Count int
}

// Ranking is the full ranked output for one filing. Entries are in rank order.
// Saving a ranking replaces any earlier ranking for the same year.
type Ranking struct {
	RunID     string
	Year      int
	Source    string
	Status    string
	CreatedAt time.Time
	Entries   []Entry
}

// Multi returns a Sink that saves to every non-nil sink in order and stops at
// the first error.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multi []Sink

func (m multi) SaveRanking(ctx context.Context, r Ranking) error {
	for _, s := range m {
		if err := s.SaveRanking(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
