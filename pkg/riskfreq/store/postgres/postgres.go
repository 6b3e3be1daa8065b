// Package postgres persists rankings in PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
	"github.com/cognicore/riskfreq/pkg/riskfreq/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS rankings (
	year INTEGER PRIMARY KEY,
	run_id TEXT NOT NULL,
	source TEXT,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ranking_entries (
	year INTEGER NOT NULL REFERENCES rankings(year) ON DELETE CASCADE,
	rank INTEGER NOT NULL,
	word TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY (year, rank)
);

CREATE INDEX IF NOT EXISTS idx_ranking_entries_word ON ranking_entries(word);
`

type pgStore struct {
	db *sql.DB
}

// Open connects to PostgreSQL with the given lib/pq DSN, verifies the
// connection and creates the schema.
func Open(ctx context.Context, dsn string) (store.Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging postgres: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &pgStore{db: db}, nil
}

func (s *pgStore) Close() error {
	return s.db.Close()
}

func (s *pgStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}

func (s *pgStore) SaveRanking(ctx context.Context, r store.Ranking) error {
	if r.Year <= 0 {
		return fmt.Errorf("%w: ranking year %d", internalerr.ErrInvalidInput, r.Year)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rankings WHERE year = $1`, r.Year); err != nil {
			return fmt.Errorf("delete ranking %d: %w", r.Year, err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO rankings (year, run_id, source, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
			r.Year, r.RunID, r.Source, r.Status, r.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert ranking %d: %w", r.Year, err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO ranking_entries (year, rank, word, count) VALUES ($1, $2, $3, $4)`)
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
	})
}

func (s *pgStore) GetRanking(ctx context.Context, year int, limit int) (store.Ranking, error) {
	r := store.Ranking{Year: year}

	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, COALESCE(source, ''), status, created_at FROM rankings WHERE year = $1`, year,
	).Scan(&r.RunID, &r.Source, &r.Status, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Ranking{}, fmt.Errorf("ranking %d: %w", year, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Ranking{}, err
	}

	// LIMIT NULL means no limit in PostgreSQL.
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, count FROM ranking_entries WHERE year = $1 ORDER BY rank LIMIT $2`, year, lim,
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

func (s *pgStore) Years(ctx context.Context) ([]int, error) {
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
