// Package tokenizer splits plain text into normalized word tokens.
package tokenizer

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrTokenization is returned for input that cannot be read as text.
var ErrTokenization = errors.New("tokenization failed")

// isWordRune reports whether r belongs to a word: letters, numbers and underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Tokens returns a lazy sequence of lowercase words in text.
// Every non-word character is a separator. The sequence can be ranged over
// any number of times and always yields the same tokens.
func Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := -1
		for i, r := range text {
			if isWordRune(r) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				if !yield(strings.ToLower(text[start:i])) {
					return
				}
				start = -1
			}
		}
		if start >= 0 {
			yield(strings.ToLower(text[start:]))
		}
	}
}

// Tokenize collects every token in text into a slice.
func Tokenize(text string) []string {
	tokens := []string{}
	for tok := range Tokens(text) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// Validate checks that text is valid UTF-8.
func Validate(text string) error {
	if utf8.ValidString(text) {
		return nil
	}
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			return fmt.Errorf("%w: invalid UTF-8 at byte %d", ErrTokenization, i)
		}
		i += size
	}
	return fmt.Errorf("%w: invalid UTF-8", ErrTokenization)
}
