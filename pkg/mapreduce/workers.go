package mapreduce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dtnitsch/wordfreq/pkg/tokenizer"
)

// PartialCount is the word frequency table of a single chunk.
type PartialCount map[string]int

// CountFunc counts one chunk. It must not retain or modify the chunk.
type CountFunc func(ctx context.Context, chunk Chunk) (PartialCount, error)

type job struct {
	index int
	chunk Chunk
}

type result struct {
	index  int
	counts PartialCount
	err    error
}

// CountChunk is the default CountFunc. The chunk is joined back into text and
// run through the tokenizer again so each worker applies the same
// normalization as the whole-text path.
func CountChunk(ctx context.Context, chunk Chunk) (PartialCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(PartialCount)
	for word := range tokenizer.Tokens(strings.Join(chunk, " ")) {
		counts[word]++
	}
	return counts, nil
}

// RunPool counts every chunk with fn on at most workers goroutines and blocks
// until all of them are done. Partials come back in chunk order.
// Any failure or cancellation aborts the run: no partials are returned.
func RunPool(ctx context.Context, logger *slog.Logger, chunks []Chunk, workers int, fn CountFunc) ([]PartialCount, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: worker count must be at least 1, got %d", ErrInvalidConfig, workers)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if fn == nil {
		fn = CountChunk
	}
	if len(chunks) == 0 {
		return []PartialCount{}, nil
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	jobs := make(chan job)
	results := make(chan result, len(chunks))

	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go worker(runCtx, cancel, w, logger, fn, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i, chunk := range chunks {
			select {
			case jobs <- job{index: i, chunk: chunk}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	partials := make([]PartialCount, len(chunks))
	var failed, aborted *WorkerError
	for r := range results {
		if r.err == nil {
			partials[r.index] = r.counts
			continue
		}
		// Chunks that only saw the run being torn down are not the cause.
		if errors.Is(r.err, context.Canceled) && runCtx.Err() != nil {
			if aborted == nil || r.index < aborted.Chunk {
				aborted = &WorkerError{Chunk: r.index, Err: r.err}
			}
			continue
		}
		if failed == nil || r.index < failed.Chunk {
			failed = &WorkerError{Chunk: r.index, Err: r.err}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failed != nil {
		return nil, failed
	}
	if aborted != nil {
		return nil, aborted
	}

	return partials, nil
}

// worker counts chunks from jobs until the channel closes. A failure cancels
// the run so the dispatcher stops handing out work.
func worker(ctx context.Context, cancel context.CancelFunc, id int, logger *slog.Logger, fn CountFunc, wg *sync.WaitGroup, jobs <-chan job, results chan<- result) {
	defer wg.Done()
	for j := range jobs {
		logger.Debug("Worker started chunk", "worker_id", id, "chunk", j.index, "tokens", len(j.chunk))
		counts, err := safeCount(ctx, fn, j.chunk)
		if err != nil {
			logger.Error("Worker failed chunk", "worker_id", id, "chunk", j.index, "error", err)
			results <- result{index: j.index, err: err}
			cancel()
			continue
		}
		if counts == nil {
			counts = PartialCount{}
		}
		results <- result{index: j.index, counts: counts}
		logger.Debug("Worker finished chunk", "worker_id", id, "chunk", j.index, "distinct", len(counts))
	}
}

// safeCount turns a panic inside fn into an error.
func safeCount(ctx context.Context, fn CountFunc, chunk Chunk) (counts PartialCount, err error) {
	defer func() {
		if r := recover(); r != nil {
			counts = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, chunk)
}
