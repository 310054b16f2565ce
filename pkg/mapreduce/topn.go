package mapreduce

import (
	"fmt"
	"io"
	"sort"
)

// Entry is one ranked word.
type Entry struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

// TopEntries returns the k most frequent words, highest count first.
// Equal counts are ordered by word, ascending byte-wise, so the ranking never
// depends on map iteration order. k larger than the table returns every entry.
func TopEntries(counts GlobalCount, k int) ([]Entry, error) {
	return TopEntriesFunc(counts, k, nil)
}

// TopEntriesFunc is TopEntries with words matching exclude left out.
func TopEntriesFunc(counts GlobalCount, k int, exclude func(string) bool) ([]Entry, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: top must not be negative, got %d", ErrInvalidConfig, k)
	}
	if k == 0 {
		return []Entry{}, nil
	}

	ss := make([]Entry, 0, len(counts))
	for word, count := range counts {
		if exclude != nil && exclude(word) {
			continue
		}
		ss = append(ss, Entry{Word: word, Count: count})
	}

	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Count != ss[j].Count {
			return ss[i].Count > ss[j].Count
		}
		return ss[i].Word < ss[j].Word
	})

	if len(ss) > k {
		ss = ss[:k]
	}
	return ss, nil
}

// TopKeywords formats the top n entries as "word:count" (e.g. "learning:1153").
func TopKeywords(counts GlobalCount, n int) []string {
	entries, err := TopEntries(counts, n)
	if err != nil {
		return []string{}
	}

	keywords := make([]string, len(entries))
	for i, e := range entries {
		keywords[i] = fmt.Sprintf("%s:%d", e.Word, e.Count)
	}
	return keywords
}

// PrintTopKeywords writes entries as a numbered list.
func PrintTopKeywords(w io.Writer, entries []Entry) error {
	for i, e := range entries {
		if _, err := fmt.Fprintf(w, "%d. %s: %d\n", i+1, e.Word, e.Count); err != nil {
			return err
		}
	}
	return nil
}
