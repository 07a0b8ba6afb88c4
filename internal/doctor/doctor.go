// Package doctor provides environment preflight checks for daxpy.
package doctor

import (
	"fmt"
	"io"
	"runtime"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/example/go-daxpy/internal/buffer"
	"github.com/example/go-daxpy/internal/partition"
)

// PassMark, WarnMark and FailMark are the prefix symbols printed for each
// check result. Warnings do not fail the run.
const (
	PassMark = "✓"
	WarnMark = "!"
	FailMark = "✗"
)

// RuntimeInfo is the Go runtime's view of the machine.
type RuntimeInfo struct {
	GOOS       string
	GOARCH     string
	GoVersion  string
	NumCPU     int
	GOMAXPROCS int
}

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// Runtime returns the runtime description. Defaults to CurrentRuntime.
	Runtime func() RuntimeInfo
	// Features returns the detected CPU features. Defaults to cpu.DetectFeatures.
	Features func() cpu.Features
	// ProbeMmap maps and unmaps a small anonymous region.
	ProbeMmap func() error
	// PhysicalMemory returns RAM plus swap in bytes, 0 when unknown.
	PhysicalMemory func() uint64
	// Threads is the worker count the benchmark will use.
	Threads int
	// BufferBytes is the combined size of x and y the benchmark will allocate.
	BufferBytes uint64
}

// DefaultConfig wires every check to the live system.
func DefaultConfig(threads int, bufferBytes uint64) Config {
	return Config{
		Runtime:        CurrentRuntime,
		Features:       cpu.DetectFeatures,
		ProbeMmap:      probeMmap,
		PhysicalMemory: buffer.PhysicalMemory,
		Threads:        threads,
		BufferBytes:    bufferBytes,
	}
}

// CurrentRuntime reports the running process.
func CurrentRuntime() RuntimeInfo {
	return RuntimeInfo{
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
	warnings []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// Warnings returns the list of warning messages.
func (r *Result) Warnings() []string { return append([]string(nil), r.warnings...) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) warn(msg string) { r.warnings = append(r.warnings, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark, WarnMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- runtime ----------------------------------------------------------
	rt := CurrentRuntime()
	if cfg.Runtime != nil {
		rt = cfg.Runtime()
	}
	fmt.Fprintf(w, "%s runtime: %s %s/%s, %d CPUs, GOMAXPROCS=%d\n",
		PassMark, rt.GoVersion, rt.GOOS, rt.GOARCH, rt.NumCPU, rt.GOMAXPROCS)

	// ---- threads ----------------------------------------------------------
	switch {
	case cfg.Threads < 1:
		res.fail(fmt.Sprintf("threads: %d is not a valid worker count", cfg.Threads))
		fmt.Fprintf(w, "%s threads: %d (must be >= 1)\n", FailMark, cfg.Threads)
	case cfg.Threads > partition.MaxWorkers:
		res.fail(fmt.Sprintf("threads: %d exceeds the limit of %d workers", cfg.Threads, partition.MaxWorkers))
		fmt.Fprintf(w, "%s threads: %d (must be <= %d)\n", FailMark, cfg.Threads, partition.MaxWorkers)
	case cfg.Threads > rt.GOMAXPROCS:
		res.warn(fmt.Sprintf("threads: %d exceeds GOMAXPROCS=%d", cfg.Threads, rt.GOMAXPROCS))
		fmt.Fprintf(w, "%s threads: %d exceeds GOMAXPROCS=%d, workers will time-share\n",
			WarnMark, cfg.Threads, rt.GOMAXPROCS)
	default:
		fmt.Fprintf(w, "%s threads: %d\n", PassMark, cfg.Threads)
	}

	// ---- SIMD -------------------------------------------------------------
	if cfg.Features != nil {
		fmt.Fprintf(w, "%s simd: %s\n", PassMark, SIMDLabel(cfg.Features()))
	}

	// ---- memory -----------------------------------------------------------
	if cfg.PhysicalMemory != nil {
		total := cfg.PhysicalMemory()
		switch {
		case total == 0:
			fmt.Fprintf(w, "%s memory: unknown, buffers need %d bytes\n", WarnMark, cfg.BufferBytes)
			res.warn("memory: physical memory unknown")
		case cfg.BufferBytes > total:
			res.fail(fmt.Sprintf("memory: buffers need %d bytes, %d available", cfg.BufferBytes, total))
			fmt.Fprintf(w, "%s memory: buffers need %d bytes, %d available\n", FailMark, cfg.BufferBytes, total)
		default:
			fmt.Fprintf(w, "%s memory: buffers need %d of %d bytes\n", PassMark, cfg.BufferBytes, total)
		}
	}

	// ---- mmap -------------------------------------------------------------
	if cfg.ProbeMmap != nil {
		if err := cfg.ProbeMmap(); err != nil {
			res.fail(fmt.Sprintf("mmap: %v", err))
			fmt.Fprintf(w, "%s mmap allocator: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s mmap allocator: ok\n", PassMark)
		}
	}

	return res
}

// SIMDLabel names the widest SIMD level f supports.
func SIMDLabel(f cpu.Features) string {
	arch := f.Architecture
	if arch == "" {
		arch = runtime.GOARCH
	}

	switch {
	case f.ForceGeneric:
		return fmt.Sprintf("generic, forced (%s)", arch)
	case f.HasAVX2:
		return fmt.Sprintf("AVX2 (%s)", arch)
	case f.HasSSE2:
		return fmt.Sprintf("SSE2 (%s)", arch)
	case f.HasNEON:
		return fmt.Sprintf("NEON (%s)", arch)
	default:
		return fmt.Sprintf("generic (%s)", arch)
	}
}

func probeMmap() error {
	v, err := buffer.New[float32](buffer.Mmap{}, 1024)
	if err != nil {
		return err
	}
	if !buffer.IsAligned(v.Data()) {
		_ = v.Release()
		return fmt.Errorf("mapping not aligned to %d bytes", buffer.Alignment)
	}
	return v.Release()
}
