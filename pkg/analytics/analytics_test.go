package analytics

import (
	"math"
	"testing"

	"github.com/pemistahl/lingua-go"
)

func TestIsStopword(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"the", true},
		{"The", true},
		{"and", true},
		{"cat", false},
		{"про", true},
		{"суд", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsStopword(tt.word); got != tt.want {
			t.Errorf("IsStopword(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}

func TestSummarize_Totals(t *testing.T) {
	a := New(lingua.English, lingua.Ukrainian)
	counts := map[string]int{"the": 3, "cat": 2, "sat": 1, "on": 1, "mat": 1, "ran": 1}

	s := a.Summarize("", counts, false)
	if s.TotalWords != 9 {
		t.Errorf("TotalWords = %d, want 9", s.TotalWords)
	}
	if s.UniqueWords != 6 {
		t.Errorf("UniqueWords = %d, want 6", s.UniqueWords)
	}
	if want := 4.0 / 9.0; math.Abs(s.StopwordShare-want) > 1e-9 {
		t.Errorf("StopwordShare = %f, want %f", s.StopwordShare, want)
	}
	if s.Language != "" {
		t.Errorf("Language = %q, want empty when detection is off", s.Language)
	}
}

func TestSummarize_Empty(t *testing.T) {
	a := New(lingua.English, lingua.Ukrainian)
	s := a.Summarize("", map[string]int{}, true)
	if s.TotalWords != 0 || s.UniqueWords != 0 || s.StopwordShare != 0 {
		t.Errorf("unexpected summary for empty input: %+v", s)
	}
	if s.Language != "" {
		t.Errorf("Language = %q, want empty for empty text", s.Language)
	}
}

func TestDetectLanguage(t *testing.T) {
	a := New(lingua.English, lingua.German, lingua.Ukrainian)

	tests := []struct {
		text string
		want lingua.Language
	}{
		{
			text: "The quick brown fox jumps over the lazy dog while the children are playing in the garden.",
			want: lingua.English,
		},
		{
			text: "Конституційний Суд України є єдиним органом конституційної юрисдикції в Україні.",
			want: lingua.Ukrainian,
		},
	}

	for _, tt := range tests {
		got, confidence, ok := a.DetectLanguage(tt.text)
		if !ok {
			t.Errorf("DetectLanguage(%q) found no language", tt.text)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectLanguage(%q) = %v, want %v", tt.text, got, tt.want)
		}
		if confidence <= 0 || confidence > 1 {
			t.Errorf("confidence = %f, want (0, 1]", confidence)
		}
	}
}

func TestSampleText(t *testing.T) {
	if got := sampleText("абвгд", 3); got != "абв" {
		t.Errorf("sampleText() = %q, want %q", got, "абв")
	}
	if got := sampleText("ab", 5); got != "ab" {
		t.Errorf("sampleText() = %q, want %q", got, "ab")
	}
}
