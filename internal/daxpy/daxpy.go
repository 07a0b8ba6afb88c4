// Package daxpy runs the multi-threaded AXPY benchmark: allocate two
// vectors, initialize them, split the index range across workers, apply
// y = a*x + y in parallel, join, and checksum the result.
//
// Only the dispatch and join are timed. Initialization, checksum and
// release happen outside the measured interval.
package daxpy

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/example/go-daxpy/internal/axpy"
	"github.com/example/go-daxpy/internal/bench"
	"github.com/example/go-daxpy/internal/buffer"
	"github.com/example/go-daxpy/internal/partition"
	"golang.org/x/exp/constraints"
)

const (
	PrecisionF32 = "f32"
	PrecisionF64 = "f64"
)

// Options configures one benchmark invocation.
type Options struct {
	Elements  uint64
	Threads   int
	Alpha     float64
	Precision string
	Allocator buffer.Allocator
	Runs      int
	Warmup    int
	Verify    bool
	Logger    *slog.Logger
}

// Result is the outcome of a benchmark invocation. Workers describes the
// last timed pass.
type Result struct {
	Elements  uint64
	Threads   int
	Precision string
	Alloc     string
	ElemSize  int
	Runs      []bench.RunResult
	Checksum  float64
	Workers   []axpy.WorkerStat
}

// Report converts r into the form the bench formatters consume.
func (r Result) Report() bench.Report {
	durations := make([]time.Duration, len(r.Runs))
	for i, run := range r.Runs {
		durations[i] = run.Duration
	}

	return bench.Report{
		Elements:  r.Elements,
		Threads:   r.Threads,
		Precision: r.Precision,
		Alloc:     r.Alloc,
		Bytes:     bench.BytesMoved(r.Elements, r.ElemSize),
		Runs:      r.Runs,
		Stats:     bench.ComputeStats(durations),
		Checksum:  r.Checksum,
	}
}

// Run executes the benchmark described by opts.
func Run(ctx context.Context, opts Options) (Result, error) {
	if err := partition.CheckWorkers(opts.Threads); err != nil {
		return Result{}, err
	}
	if opts.Runs < 1 {
		opts.Runs = 1
	}
	if opts.Warmup < 0 {
		opts.Warmup = 0
	}
	if opts.Allocator == nil {
		opts.Allocator = buffer.Heap{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	switch opts.Precision {
	case "", PrecisionF32:
		opts.Precision = PrecisionF32
		return run(ctx, opts, float32(opts.Alpha), axpy.F32)
	case PrecisionF64:
		return run(ctx, opts, opts.Alpha, axpy.F64)
	default:
		return Result{}, fmt.Errorf("unknown precision %q", opts.Precision)
	}
}

func run[T constraints.Float](ctx context.Context, opts Options, alpha T, kernel axpy.Kernel[T]) (res Result, err error) {
	log := opts.Logger.With(
		slog.Uint64("n", opts.Elements),
		slog.Int("threads", opts.Threads),
		slog.String("precision", opts.Precision),
		slog.String("alloc", opts.Allocator.Name()),
	)

	// x and y are live together, so they must fit together.
	if err := buffer.CheckFootprint[T](2, opts.Elements); err != nil {
		return Result{}, fmt.Errorf("alloc x, y: %w", err)
	}

	x, err := buffer.New[T](opts.Allocator, opts.Elements)
	if err != nil {
		return Result{}, fmt.Errorf("alloc x: %w", err)
	}
	defer releaseInto(&err, x, "x")

	y, err := buffer.New[T](opts.Allocator, opts.Elements)
	if err != nil {
		return Result{}, fmt.Errorf("alloc y: %w", err)
	}
	defer releaseInto(&err, y, "y")

	var zero T
	res = Result{
		Elements:  opts.Elements,
		Threads:   opts.Threads,
		Precision: opts.Precision,
		Alloc:     opts.Allocator.Name(),
		ElemSize:  int(unsafe.Sizeof(zero)),
		Runs:      make([]bench.RunResult, 0, opts.Runs),
	}

	xs, ys := x.Data(), y.Data()

	ranges, err := partition.Split(len(ys), opts.Threads)
	if err != nil {
		return Result{}, err
	}
	log.Debug("partitioned", slog.Int("chunk", partition.ChunkSize(len(ys), opts.Threads)))

	workers := axpy.NewWorkers(ranges)

	for pass := range opts.Warmup + opts.Runs {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		Init(xs, ys)

		start := time.Now()
		axpy.Run(workers, xs, ys, alpha, kernel)
		elapsed := time.Since(start)

		if pass < opts.Warmup {
			log.Debug("warmup pass", slog.Int("pass", pass), slog.Duration("elapsed", elapsed))
			continue
		}

		sum := Checksum(ys)
		if opts.Verify {
			if err := Verify(ys, alpha); err != nil {
				return Result{}, err
			}
		}

		res.Runs = append(res.Runs, bench.RunResult{
			Index:    pass - opts.Warmup,
			Duration: elapsed,
			Checksum: sum,
		})
		res.Checksum = sum
		res.Workers = workers.Stats()

		for t, w := range res.Workers {
			log.Debug("worker",
				slog.Int("pass", pass-opts.Warmup),
				slog.Int("worker", t),
				slog.String("range", w.Range.String()),
				slog.Duration("elapsed", w.Elapsed),
			)
		}
	}

	log.Info("benchmark complete",
		slog.Int("runs", len(res.Runs)),
		slog.Float64("checksum", res.Checksum),
	)

	return res, nil
}

func releaseInto[T constraints.Float](errp *error, v *buffer.Vec[T], name string) {
	if rerr := v.Release(); rerr != nil && *errp == nil {
		*errp = fmt.Errorf("release %s: %w", name, rerr)
	}
}
