package mapreduce

import "fmt"

// Chunk is a contiguous, read-only run of tokens handled by one worker.
type Chunk []string

// Partition splits tokens into exactly n chunks. Every chunk but the last
// holds len(tokens)/n tokens and the last one takes the remainder, so with
// fewer tokens than chunks the leading chunks are empty.
// Chunks share the backing array of tokens.
func Partition(tokens []string, n int) ([]Chunk, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: chunk count must be at least 1, got %d", ErrInvalidConfig, n)
	}

	size := len(tokens) / n
	chunks := make([]Chunk, n)
	for i := 0; i < n-1; i++ {
		chunks[i] = Chunk(tokens[i*size : (i+1)*size : (i+1)*size])
	}
	chunks[n-1] = Chunk(tokens[(n-1)*size:])

	return chunks, nil
}
