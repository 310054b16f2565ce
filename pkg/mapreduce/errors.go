package mapreduce

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when workers or top-K are out of range.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrWorkerFailure matches any *WorkerError.
	ErrWorkerFailure = errors.New("worker failure")
)

// WorkerError records which chunk failed to count.
type WorkerError struct {
	Chunk int
	Err   error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker failure on chunk %d: %v", e.Chunk, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrWorkerFailure) match without losing the cause chain.
func (e *WorkerError) Is(target error) bool {
	return target == ErrWorkerFailure
}
