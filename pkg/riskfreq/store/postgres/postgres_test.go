package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
	"github.com/cognicore/riskfreq/pkg/riskfreq/store"
)

// Set RISKFREQ_POSTGRES_DSN to run against a live database, e.g.
// "host=localhost user=postgres password=postgres dbname=riskfreq_test sslmode=disable".
func openTest(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("RISKFREQ_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RISKFREQ_POSTGRES_DSN not set")
	}
	st, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestPostgresRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTest(t)

	r := store.Ranking{
		RunID:  "pg-test",
		Year:   2099,
		Status: "terminated",
		Entries: []store.Entry{
			{Year: 2099, Word: "risk", Count: 3},
			{Year: 2099, Word: "face", Count: 1},
		},
	}
	if err := st.SaveRanking(ctx, r); err != nil {
		t.Fatalf("SaveRanking: %v", err)
	}

	got, err := st.GetRanking(ctx, 2099, 1)
	if err != nil {
		t.Fatalf("GetRanking: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Word != "risk" {
		t.Errorf("entries = %v", got.Entries)
	}

	if _, err := st.GetRanking(ctx, 1800, 0); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenUnreachable(t *testing.T) {
	_, err := Open(context.Background(), "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1")
	if !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}
