package ingest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/riskfreq/pkg/riskfreq/lexicon"
	"github.com/cognicore/riskfreq/pkg/riskfreq/stoplist"
)

func TestTokenizerBasic(t *testing.T) {
	tokenizer := NewTokenizer([]string{"the", "and", "over"})

	tokens := tokenizer.Tokenize("The quick brown fox jumps over the lazy dog")

	expected := []string{"quick", "brown", "fox", "jumps", "lazy", "dog"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Tokenize = %v, want %v", tokens, expected)
	}
}

func TestTokenizerRejectsDigits(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("fiscal 2008 results q4 covid19 10-k revenue")
	for _, tok := range tokens {
		if strings.ContainsAny(tok, "0123456789") {
			t.Errorf("token %q contains a digit", tok)
		}
	}
	expected := []string{"fiscal", "results", "revenue"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Tokenize = %v, want %v", tokens, expected)
	}
}

func TestTokenizerRejectsShort(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("an ox is big ok")
	expected := []string{"big"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Tokenize = %v, want %v", tokens, expected)
	}
}

func TestTokenizerLengthCountsRunes(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	// "été" is three runes but five bytes.
	tokens := tokenizer.Tokenize("été où")
	if !reflect.DeepEqual(tokens, []string{"été"}) {
		t.Errorf("Tokenize = %v", tokens)
	}
}

func TestTokenizerMinLength(t *testing.T) {
	tokenizer := NewTokenizer(nil)
	tokenizer.SetMinLength(5)

	tokens := tokenizer.Tokenize("risk supply chain")
	if !reflect.DeepEqual(tokens, []string{"supply", "chain"}) {
		t.Errorf("Tokenize = %v", tokens)
	}
}

func TestTokenizerHyphens(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("long-term -- third-party--vendors -edge-")
	expected := []string{"long-term", "third-party-vendors", "edge"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Tokenize = %v, want %v", tokens, expected)
	}
}

func TestTokenizerCaseNormalization(t *testing.T) {
	tokenizer := NewTokenizer([]string{"company"})

	tokens := tokenizer.Tokenize("COMPANY Products iPhone")
	if !reflect.DeepEqual(tokens, []string{"products", "iphone"}) {
		t.Errorf("Tokenize = %v", tokens)
	}
}

func TestTokenizerDefaultStoplist(t *testing.T) {
	tokenizer := NewTokenizerWithStoplist(stoplist.NewDefault())

	tokens := tokenizer.Tokenize("We face risk Risk is bad risk")
	expected := []string{"face", "risk", "risk", "bad", "risk"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Tokenize = %v, want %v", tokens, expected)
	}
}

func TestTokenizerNormalizerRunsBeforeFilter(t *testing.T) {
	lex := lexicon.New()
	lex.AddSynonymGroup("the", []string{"thee"})
	lex.AddSynonymGroup("regulation", []string{"regulations"})

	tokenizer := NewTokenizer([]string{"the"})
	tokenizer.SetNormalizer(lex)

	tokens := tokenizer.Tokenize("thee regulations")
	if !reflect.DeepEqual(tokens, []string{"regulation"}) {
		t.Errorf("Tokenize = %v", tokens)
	}

	tokenizer.SetNormalizer(nil)
	tokens = tokenizer.Tokenize("regulations")
	if !reflect.DeepEqual(tokens, []string{"regulations"}) {
		t.Errorf("nil normalizer should be identity, got %v", tokens)
	}
}

func TestAddRemoveStopword(t *testing.T) {
	tokenizer := NewTokenizer([]string{"the"})

	tokens := tokenizer.Tokenize("the cat")
	if len(tokens) != 1 || tokens[0] != "cat" {
		t.Error("Should filter 'the'")
	}

	tokenizer.RemoveStopword("the")
	tokens = tokenizer.Tokenize("the cat")
	if len(tokens) != 2 {
		t.Error("'the' should not be filtered after removal")
	}

	tokenizer.AddStopword("the")
	tokens = tokenizer.Tokenize("the cat")
	if len(tokens) != 1 || tokens[0] != "cat" {
		t.Error("Should filter 'the' after re-adding")
	}
}

func TestTokenizerEmptyInput(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	if tokens := tokenizer.Tokenize(""); len(tokens) != 0 {
		t.Error("Empty input should produce empty output")
	}
	if tokens := tokenizer.Tokenize("   "); len(tokens) != 0 {
		t.Error("Whitespace input should produce empty output")
	}
}

type verdictCounter map[Verdict]int

func (c verdictCounter) ObserveToken(_ string, v Verdict) { c[v]++ }

func TestTokenizerObserver(t *testing.T) {
	tokenizer := NewTokenizer([]string{"the"})
	counts := verdictCounter{}
	tokenizer.SetObserver(counts)

	tokenizer.Tokenize("the 2009 ox supply chain")

	want := verdictCounter{
		RejectedStopword: 1,
		RejectedDigit:    1,
		RejectedShort:    1,
		Accepted:         2,
	}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("observer counts = %v, want %v", counts, want)
	}
}
