package mapreduce

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dtnitsch/wordfreq/pkg/tokenizer"
)

func TestPartition_Sizes(t *testing.T) {
	tokens := tokenizer.Tokenize("a b c d e f g h i j")

	tests := []struct {
		name  string
		n     int
		sizes []int
	}{
		{name: "single chunk", n: 1, sizes: []int{10}},
		{name: "even split", n: 2, sizes: []int{5, 5}},
		{name: "last absorbs remainder", n: 3, sizes: []int{3, 3, 4}},
		{name: "four chunks", n: 4, sizes: []int{2, 2, 2, 4}},
		{name: "one token per chunk", n: 10, sizes: []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
		{name: "more chunks than tokens", n: 12, sizes: []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Partition(tokens, tt.n)
			if err != nil {
				t.Fatalf("Partition() error = %v", err)
			}
			if len(chunks) != tt.n {
				t.Fatalf("Partition() returned %d chunks, want %d", len(chunks), tt.n)
			}
			for i, c := range chunks {
				if len(c) != tt.sizes[i] {
					t.Errorf("chunk %d has %d tokens, want %d", i, len(c), tt.sizes[i])
				}
			}
		})
	}
}

func TestPartition_Completeness(t *testing.T) {
	texts := []string{
		"",
		"single",
		"the Cat sat on the MAT. The cat ran.",
		"It was the best of times, it was the worst of times, it was the age of wisdom, it was the age of foolishness",
		"Про Конституційний Суд України: суд, суддя, суду; 2024 рік.",
	}

	for _, text := range texts {
		tokens := tokenizer.Tokenize(text)
		for n := 1; n <= 12; n++ {
			chunks, err := Partition(tokens, n)
			if err != nil {
				t.Fatalf("Partition(n=%d) error = %v", n, err)
			}

			joined := []string{}
			for _, c := range chunks {
				joined = append(joined, c...)
			}
			if !reflect.DeepEqual(joined, tokens) {
				t.Errorf("text %q n=%d: concatenated chunks = %v, want %v", text, n, joined, tokens)
			}
		}
	}
}

func TestPartition_ChunksDoNotOverlapOnAppend(t *testing.T) {
	tokens := []string{"a", "b", "c", "d"}
	chunks, err := Partition(tokens, 2)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}

	_ = append(chunks[0], "x")
	if tokens[2] != "c" {
		t.Errorf("appending to chunk 0 overwrote the source: %v", tokens)
	}
}

func TestPartition_InvalidCount(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := Partition([]string{"a"}, n); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Partition(n=%d) error = %v, want ErrInvalidConfig", n, err)
		}
	}
}
