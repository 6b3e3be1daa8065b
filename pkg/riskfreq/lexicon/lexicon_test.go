package lexicon

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	lex := New()
	lex.AddSynonymGroup("regulation", []string{"regulations", "Regulatory"})

	tests := map[string]string{
		"regulations": "regulation",
		"regulatory":  "regulation",
		"REGULATION":  "regulation",
		"unknown":     "unknown",
	}
	for in, want := range tests {
		if got := lex.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVariants(t *testing.T) {
	lex := New()
	lex.AddSynonymGroup("product", []string{"products", "product"})

	want := []string{"product", "products"}
	if got := lex.Variants("products"); !reflect.DeepEqual(got, want) {
		t.Errorf("Variants = %v, want %v", got, want)
	}
	if got := lex.Variants("other"); !reflect.DeepEqual(got, []string{"other"}) {
		t.Errorf("Variants(unknown) = %v", got)
	}
	if !lex.HasSynonyms("PRODUCTS") {
		t.Error("HasSynonyms should be case-insensitive")
	}
}

func TestAddSynonymGroupReplacesOld(t *testing.T) {
	lex := New()
	lex.AddSynonymGroup("risk", []string{"risks", "hazard"})
	lex.AddSynonymGroup("risk", []string{"risks"})

	if lex.Normalize("hazard") != "hazard" {
		t.Error("old variant should be dropped when group is replaced")
	}
	stats := lex.Stats()
	if stats.SynonymGroups != 1 || stats.TotalVariants != 2 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	data := `synonyms:
  - canonical: regulation
    variants: [regulations, regulatory]
  - canonical: ""
    variants: [ignored]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if lex.Normalize("regulatory") != "regulation" {
		t.Error("loaded lexicon should normalize regulatory")
	}
	if lex.HasSynonyms("ignored") {
		t.Error("group with blank canonical should be skipped")
	}
}

func TestLoadFromYAMLMissing(t *testing.T) {
	if _, err := LoadFromYAML("/nonexistent/lexicon.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStemmer(t *testing.T) {
	var s Stemmer
	tests := map[string]string{
		"risks":       "risk",
		"regulations": "regulation",
		"companies":   "company",
		"processes":   "process",
		"business":    "business",
		"analysis":    "analysis",
		"status":      "status",
		"sales":       "sale",
		"long-term":   "long-term",
		"gas":         "gas",
	}
	for in, want := range tests {
		if got := s.Normalize(in); got != want {
			t.Errorf("Stemmer.Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestChain(t *testing.T) {
	lex := New()
	lex.AddSynonymGroup("regulation", []string{"regulatory"})

	c := Chain{lex, Stemmer{}}
	if got := c.Normalize("regulatory"); got != "regulation" {
		t.Errorf("chain(regulatory) = %q", got)
	}
	if got := c.Normalize("risks"); got != "risk" {
		t.Errorf("chain(risks) = %q", got)
	}
	if got := (Chain{}).Normalize("same"); got != "same" {
		t.Errorf("empty chain should be identity, got %q", got)
	}
}
