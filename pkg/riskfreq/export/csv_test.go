package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/riskfreq/pkg/riskfreq/store"
)

func ranking(year int, words ...string) store.Ranking {
	r := store.Ranking{Year: year}
	for i, w := range words {
		r.Entries = append(r.Entries, store.Entry{Year: year, Word: w, Count: len(words) - i})
	}
	return r
}

func TestCSVDirOneFilePerYear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewCSVDir(dir)
	if err != nil {
		t.Fatalf("NewCSVDir: %v", err)
	}
	defer sink.Close()

	ctx := context.Background()
	if err := sink.SaveRanking(ctx, ranking(2007, "risk", "face")); err != nil {
		t.Fatal(err)
	}
	if err := sink.SaveRanking(ctx, ranking(2008, "supply")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "2007.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "Year,Word,Count\n2007,risk,2\n2007,face,1\n"
	if string(data) != want {
		t.Errorf("2007.csv = %q, want %q", data, want)
	}

	if _, err := os.Stat(filepath.Join(dir, "2008.csv")); err != nil {
		t.Errorf("2008.csv missing: %v", err)
	}
}

func TestCSVDirEmptyRankingWritesHeader(t *testing.T) {
	dir := t.TempDir()
	sink, _ := NewCSVDir(dir)

	if err := sink.SaveRanking(context.Background(), ranking(2010)); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "2010.csv"))
	if string(data) != "Year,Word,Count\n" {
		t.Errorf("got %q", data)
	}
}

func TestCSVFileCombined(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all.csv")
	sink, err := NewCSVFile(path)
	if err != nil {
		t.Fatalf("NewCSVFile: %v", err)
	}

	ctx := context.Background()
	sink.SaveRanking(ctx, ranking(2007, "risk"))
	sink.SaveRanking(ctx, ranking(2008, "supply"))
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	data, _ := os.ReadFile(path)
	want := "Year,Word,Count\n2007,risk,1\n2008,supply,1\n"
	if string(data) != want {
		t.Errorf("all.csv = %q, want %q", data, want)
	}
}

func TestCSVCanceledContext(t *testing.T) {
	sink, _ := NewCSVDir(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sink.SaveRanking(ctx, ranking(2007, "risk")); err == nil {
		t.Error("expected context error")
	}
}
