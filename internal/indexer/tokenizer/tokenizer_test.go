package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenizeDropsStopWordsAndStems(t *testing.T) {
	got := Default.Terms("The Searching of indexed documents")
	want := []string{"search", "index", "document"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}

func TestTokenizeKeepsRepeatedWords(t *testing.T) {
	tokens := Default.Tokenize("ranking and ranking again")
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0].Term != tokens[1].Term {
		t.Errorf("repeated word should produce equal terms, got %q and %q", tokens[0].Term, tokens[1].Term)
	}
}

func TestTokenizeSplitsOnPunctuation(t *testing.T) {
	a := New(Options{KeepStopWords: true})
	got := a.Terms("Top-N, best-match: v2!")
	want := []string{"top", "n", "best", "match", "v2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if got := Default.Terms("  ,;  "); len(got) != 0 {
		t.Errorf("expected no terms, got %v", got)
	}
}
