package axpy

import (
	"time"

	"github.com/example/go-daxpy/internal/partition"
	"github.com/sourcegraph/conc"
	"golang.org/x/exp/constraints"
	"golang.org/x/sys/cpu"
)

// WorkerStat reports what one worker covered and how long it ran.
type WorkerStat struct {
	Range   partition.Range
	Elapsed time.Duration
}

// slot is written by exactly one worker. The pad keeps neighbouring slots
// on separate cache lines.
type slot struct {
	elapsed time.Duration
	_       cpu.CacheLinePad
}

// Workers holds the ranges of one partition and a timing slot per range.
// It is built with NewWorkers before the clock starts so that dispatch
// allocates no bookkeeping, and it is reused across passes.
type Workers struct {
	ranges []partition.Range
	slots  []slot
}

// NewWorkers prepares one worker per range.
func NewWorkers(ranges []partition.Range) *Workers {
	return &Workers{ranges: ranges, slots: make([]slot, len(ranges))}
}

// Len returns the number of workers.
func (w *Workers) Len() int { return len(w.ranges) }

// Stats reports the range and elapsed time of every worker for the most
// recent Run.
func (w *Workers) Stats() []WorkerStat {
	stats := make([]WorkerStat, len(w.ranges))
	for t, r := range w.ranges {
		stats[t] = WorkerStat{Range: r, Elapsed: w.slots[t].elapsed}
	}

	return stats
}

// Run starts one goroutine per range of w, applies kernel to y[r] and x[r],
// and returns once every worker has finished. Ranges must be disjoint; no
// other synchronization is used while the workers run. Empty ranges still
// get a worker, which records zero and returns immediately.
//
// A panic in any worker is re-raised on the calling goroutine after the join.
func Run[T constraints.Float](w *Workers, x, y []T, alpha T, kernel Kernel[T]) {
	var wg conc.WaitGroup
	for t, r := range w.ranges {
		wg.Go(func() {
			if r.Empty() {
				w.slots[t].elapsed = 0
				return
			}
			start := time.Now()
			kernel(y[r.Start:r.End], alpha, x[r.Start:r.End])
			w.slots[t].elapsed = time.Since(start)
		})
	}
	wg.Wait()
}
