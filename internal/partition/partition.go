// Package partition splits an index range into contiguous chunks for
// parallel distribution.
package partition

import (
	"errors"
	"fmt"
)

// MaxWorkers bounds the number of ranges Split hands out.
const MaxWorkers = 1 << 16

var (
	// ErrNoWorkers is returned when fewer than one chunk is requested.
	ErrNoWorkers = errors.New("partition: worker count must be at least 1")
	// ErrTooManyWorkers is returned when more than MaxWorkers chunks are requested.
	ErrTooManyWorkers = fmt.Errorf("partition: worker count must be at most %d", MaxWorkers)
)

// CheckWorkers reports whether workers is a usable worker count.
func CheckWorkers(workers int) error {
	switch {
	case workers < 1:
		return fmt.Errorf("%w (got %d)", ErrNoWorkers, workers)
	case workers > MaxWorkers:
		return fmt.Errorf("%w (got %d)", ErrTooManyWorkers, workers)
	default:
		return nil
	}
}

// Range is the half-open index interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in r.
func (r Range) Len() int { return r.End - r.Start }

// Empty reports whether r covers no indices.
func (r Range) Empty() bool { return r.End <= r.Start }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Split divides [0, n) into exactly workers ranges of ceil(n/workers)
// indices each. The last non-empty range may be shorter. When workers
// exceeds n the trailing ranges are empty (Start == End == n).
func Split(n, workers int) ([]Range, error) {
	if err := CheckWorkers(workers); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("partition: negative length %d", n)
	}

	chunk := ChunkSize(n, workers)
	ranges := make([]Range, workers)

	for t := range ranges {
		start := min(t*chunk, n)
		end := min(start+chunk, n)
		ranges[t] = Range{Start: start, End: end}
	}

	return ranges, nil
}

// ChunkSize returns ceil(n/workers) without overflowing for any n >= 0.
// workers must be at least 1.
func ChunkSize(n, workers int) int {
	return n/workers + b2i(n%workers != 0)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
