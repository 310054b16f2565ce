package analytics

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// languageSampleRunes caps how much text goes through language detection.
const languageSampleRunes = 4000

type Analytics struct {
	languages []lingua.Language

	once     sync.Once
	detector lingua.LanguageDetector
}

// Summary describes a counted text.
type Summary struct {
	TotalWords         int     `json:"total_words" yaml:"total_words"`
	UniqueWords        int     `json:"unique_words" yaml:"unique_words"`
	StopwordShare      float64 `json:"stopword_share" yaml:"stopword_share"`
	Language           string  `json:"language,omitempty" yaml:"language,omitempty"`
	LanguageCode       string  `json:"language_code,omitempty" yaml:"language_code,omitempty"`
	LanguageConfidence float64 `json:"language_confidence,omitempty" yaml:"language_confidence,omitempty"`
}

// New returns an Analytics that detects the given languages, or every
// language lingua knows when none are passed. The detector is built on first use.
func New(languages ...lingua.Language) *Analytics {
	return &Analytics{languages: languages}
}

func (a *Analytics) languageDetector() lingua.LanguageDetector {
	a.once.Do(func() {
		builder := lingua.NewLanguageDetectorBuilder()
		if len(a.languages) == 0 {
			a.detector = builder.FromAllLanguages().WithLowAccuracyMode().Build()
			return
		}
		a.detector = builder.FromLanguages(a.languages...).Build()
	})
	return a.detector
}

// DetectLanguage returns the most likely language of text with its confidence (0-1).
func (a *Analytics) DetectLanguage(text string) (lingua.Language, float64, bool) {
	sample := sampleText(text, languageSampleRunes)
	if strings.TrimSpace(sample) == "" {
		return lingua.Unknown, 0, false
	}

	detector := a.languageDetector()
	language, ok := detector.DetectLanguageOf(sample)
	if !ok {
		return lingua.Unknown, 0, false
	}
	return language, detector.ComputeLanguageConfidence(sample, language), true
}

// Summarize reports totals over counts and, when detect is set, the language of text.
func (a *Analytics) Summarize(text string, counts map[string]int, detect bool) Summary {
	s := Summary{UniqueWords: len(counts)}

	stop := 0
	for word, count := range counts {
		s.TotalWords += count
		if IsStopword(word) {
			stop += count
		}
	}
	if s.TotalWords > 0 {
		s.StopwordShare = float64(stop) / float64(s.TotalWords)
	}

	if detect {
		if language, confidence, ok := a.DetectLanguage(text); ok {
			s.Language = language.String()
			s.LanguageCode = strings.ToLower(language.IsoCode639_1().String())
			s.LanguageConfidence = confidence
		}
	}

	return s
}

// sampleText returns at most n runes from the start of text.
func sampleText(text string, n int) string {
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
