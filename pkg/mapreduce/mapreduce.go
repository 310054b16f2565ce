// Package mapreduce counts word frequencies by splitting the token stream
// into chunks, counting them on a bounded worker pool and merging the
// partial tables.
package mapreduce

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/wordfreq/pkg/tokenizer"
)

const (
	DefaultWorkers = 4
	DefaultTopK    = 10
)

// GlobalCount is the word frequency table of a whole run.
type GlobalCount map[string]int

// Options controls a single Count run.
type Options struct {
	Workers int
	TopK    int

	// CountFunc overrides the per-chunk counter. Nil uses CountChunk.
	CountFunc CountFunc

	// Exclude drops words from the ranking only; Counts keeps them.
	Exclude func(word string) bool

	Logger *slog.Logger
}

// DefaultOptions returns 4 workers and a top 10.
func DefaultOptions() Options {
	return Options{Workers: DefaultWorkers, TopK: DefaultTopK}
}

// Validate reports ErrInvalidConfig for a non-positive worker count or a negative top-K.
func (o Options) Validate() error {
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers must be a positive integer, got %d", ErrInvalidConfig, o.Workers)
	}
	if o.TopK < 0 {
		return fmt.Errorf("%w: top must not be negative, got %d", ErrInvalidConfig, o.TopK)
	}
	return nil
}

// Result is the outcome of a Count run.
type Result struct {
	Tokens  int
	Chunks  int
	Workers int
	Counts  GlobalCount
	Top     []Entry
	Elapsed time.Duration
}

// Count runs the full pipeline over text: tokenize, partition, count each
// chunk in parallel, reduce and rank. Any error aborts the run and no
// Result is returned.
func Count(ctx context.Context, text string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	start := time.Now()

	if err := tokenizer.Validate(text); err != nil {
		return nil, err
	}
	tokens := tokenizer.Tokenize(text)

	chunks, err := Partition(tokens, opts.Workers)
	if err != nil {
		return nil, err
	}
	logger.Info("Starting map phase", "tokens", len(tokens), "chunks", len(chunks), "workers", opts.Workers)

	partials, err := RunPool(ctx, logger, chunks, opts.Workers, opts.CountFunc)
	if err != nil {
		return nil, fmt.Errorf("map phase: %w", err)
	}

	counts := Reduce(partials)
	logger.Info("Reduce phase complete", "partials", len(partials), "distinct", len(counts))

	var top []Entry
	if opts.Exclude != nil {
		top, err = TopEntriesFunc(counts, opts.TopK, opts.Exclude)
	} else {
		top, err = TopEntries(counts, opts.TopK)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Tokens:  len(tokens),
		Chunks:  len(chunks),
		Workers: opts.Workers,
		Counts:  counts,
		Top:     top,
		Elapsed: time.Since(start),
	}, nil
}

// Reduce aggregates partial counts into a single table.
func Reduce(intermediate []PartialCount) GlobalCount {
	finalResults := make(GlobalCount)

	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}

	return finalResults
}

// Merge returns the pointwise sum of a and b without modifying either.
func Merge(a, b GlobalCount) GlobalCount {
	out := make(GlobalCount, max(len(a), len(b)))
	for word, count := range a {
		out[word] += count
	}
	for word, count := range b {
		out[word] += count
	}
	return out
}

// ReduceTree folds partials pairwise as a balanced tree. It yields the same
// table as Reduce.
func ReduceTree(intermediate []PartialCount) GlobalCount {
	switch len(intermediate) {
	case 0:
		return GlobalCount{}
	case 1:
		return Reduce(intermediate)
	}
	mid := len(intermediate) / 2
	return Merge(ReduceTree(intermediate[:mid]), ReduceTree(intermediate[mid:]))
}

// CountWhole counts text in one pass without chunking.
func CountWhole(text string) GlobalCount {
	counts := make(GlobalCount)
	for word := range tokenizer.Tokens(text) {
		counts[word]++
	}
	return counts
}
