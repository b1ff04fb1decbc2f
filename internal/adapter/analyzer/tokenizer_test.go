package analyzer

import (
	"reflect"
	"testing"
)

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("What is the cut-off time for the MT103?")
	want := []string{"cut", "off", "time", "mt103"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestTokenizer_QuestionFiller(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("Please tell me about INR purpose codes")
	want := []string{"inr", "purpose", "codes"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("a I go to")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short token %q should be removed, got %v", token, tokens)
		}
	}
}

func TestTokenizer_Unicode(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("Überweisung nach São Paulo")
	want := []string{"überweisung", "nach", "são", "paulo"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestTokenizer_Empty(t *testing.T) {
	tok := NewTokenizer()

	if tokens := tok.Tokenize("  ,.;  "); len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}

func TestSplitWords(t *testing.T) {
	got := splitWords("field_70: remittance/info")
	want := []string{"field_70", "remittance", "info"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTokenizer_PaymentsTerms(t *testing.T) {
	tok := NewTokenizer()

	tests := []struct {
		input string
		want  []string
	}{
		{"MT103/71A", []string{"mt103", "71a"}},
		{"Field 50K, 59 and 70", []string{"field", "50k", "59", "70"}},
		{"USD/INR cut-off @ 17:00 ET", []string{"usd", "inr", "cut", "off", "17", "00", "et"}},
		{"Is :71A: OUR or SHA?", []string{"71a", "sha"}},
	}

	for _, tt := range tests {
		if got := tok.Tokenize(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSplitWords_SwiftReference(t *testing.T) {
	got := splitWords("MT103/71A")
	want := []string{"MT103", "71A"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
