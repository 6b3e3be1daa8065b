package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
	"github.com/cognicore/riskfreq/pkg/riskfreq/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS rankings (
	year INTEGER PRIMARY KEY,
	run_id TEXT NOT NULL,
	source TEXT,
	status TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ranking_entries (
	year INTEGER NOT NULL,
	rank INTEGER NOT NULL,
	word TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(year, rank),
	FOREIGN KEY(year) REFERENCES rankings(year) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_ranking_entries_word ON ranking_entries(word);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRanking replaces the ranking for r.Year in a single transaction.
func (s *sqliteStore) SaveRanking(ctx context.Context, r store.Ranking) error {
	if r.Year <= 0 {
		return fmt.Errorf("%w: ranking year %d", internalerr.ErrInvalidInput, r.Year)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// foreign_keys is per connection, so do not rely on the cascade here.
	if _, err := tx.ExecContext(ctx, `DELETE FROM ranking_entries WHERE year = ?`, r.Year); err != nil {
		return fmt.Errorf("delete entries %d: %w", r.Year, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rankings WHERE year = ?`, r.Year); err != nil {
		return fmt.Errorf("delete ranking %d: %w", r.Year, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rankings (year, run_id, source, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.Year, r.RunID, r.Source, r.Status, r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert ranking %d: %w", r.Year, err)
	}

	if err := insertEntries(ctx, tx, r); err != nil {
		return err
	}

	return tx.Commit()
}

func insertEntries(ctx context.Context, tx *sql.Tx, r store.Ranking) error {
	if len(r.Entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ranking_entries (year, rank, word, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range r.Entries {
		if _, err := stmt.ExecContext(ctx, r.Year, i+1, e.Word, e.Count); err != nil {
			return fmt.Errorf("insert entry %q: %w", e.Word, err)
		}
	}
	return nil
}

// GetRanking returns the saved ranking for year.
func (s *sqliteStore) GetRanking(ctx context.Context, year int, limit int) (store.Ranking, error) {
	r := store.Ranking{Year: year}
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, source, status, created_at FROM rankings WHERE year = ?`, year,
	).Scan(&r.RunID, &r.Source, &r.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Ranking{}, fmt.Errorf("ranking %d: %w", year, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Ranking{}, err
	}
	if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		r.CreatedAt = t
	}

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, count FROM ranking_entries WHERE year = ? ORDER BY rank LIMIT ?`, year, limit,
	)
	if err != nil {
		return store.Ranking{}, err
	}
	defer rows.Close()

	for rows.Next() {
		e := store.Entry{Year: year}
		if err := rows.Scan(&e.Word, &e.Count); err != nil {
			return store.Ranking{}, err
		}
		r.Entries = append(r.Entries, e)
	}

	return r, rows.Err()
}

// Years lists years with a saved ranking.
func (s *sqliteStore) Years(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT year FROM rankings ORDER BY year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}
