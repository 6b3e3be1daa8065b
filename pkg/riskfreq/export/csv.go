// Package export writes rankings as Year,Word,Count tables.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/cognicore/riskfreq/pkg/riskfreq/store"
)

var header = []string{"Year", "Word", "Count"}

// CSV is a store.Sink writing CSV tables. In directory mode each year gets its own
// file named <year>.csv, like one worksheet per filing; in file mode every
// ranking is appended to a single table under one header.
type CSV struct {
	mu  sync.Mutex
	dir string

	f *os.File
	w *csv.Writer
}

// NewCSVDir creates a sink writing one file per year into dir.
func NewCSVDir(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &CSV{dir: dir}, nil
}

// NewCSVFile creates a sink writing all rankings to path.
func NewCSVFile(path string) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return &CSV{f: f, w: w}, nil
}

// SaveRanking writes r.
func (c *CSV) SaveRanking(ctx context.Context, r store.Ranking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w != nil {
		if err := writeRows(c.w, r); err != nil {
			return err
		}
		c.w.Flush()
		return c.w.Error()
	}

	return c.writeYearFile(r)
}

func (c *CSV) writeYearFile(r store.Ranking) error {
	path := filepath.Join(c.dir, strconv.Itoa(r.Year)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := writeRows(w, r); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeRows(w *csv.Writer, r store.Ranking) error {
	year := strconv.Itoa(r.Year)
	for _, e := range r.Entries {
		if err := w.Write([]string{year, e.Word, strconv.Itoa(e.Count)}); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the combined file, if any.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.f == nil {
		return nil
	}
	c.w.Flush()
	err := c.w.Error()
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	c.f = nil
	return err
}
