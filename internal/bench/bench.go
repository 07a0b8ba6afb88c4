// Package bench provides timing statistics and report formatting for the
// daxpy command.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and checksum of a single timed pass.
type RunResult struct {
	Index    int
	Duration time.Duration
	Checksum float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// An empty slice yields zero Stats.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Report is everything the formatters print for one benchmark invocation.
type Report struct {
	Elements  uint64
	Threads   int
	Precision string
	Alloc     string
	Bytes     int64 // bytes moved per pass
	Runs      []RunResult
	Stats     Stats
	Checksum  float64
}

// ---------------------------------------------------------------------------
// Bandwidth helpers
// ---------------------------------------------------------------------------

// BytesMoved returns the memory traffic of one pass over n elements: x is
// read, y is read and written.
func BytesMoved(n uint64, elemSize int) int64 {
	return int64(n) * int64(elemSize) * 3
}

// GBps returns bytes/d in gigabytes (1e9) per second.
// Returns 0 if d is zero to avoid division by zero.
func GBps(bytes int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(bytes) / d.Seconds() / 1e9
}

// ---------------------------------------------------------------------------
// Bandwidth threshold gate
// ---------------------------------------------------------------------------

// CheckMinBandwidth returns an error if gbps < threshold.
// A threshold of 0 disables the gate.
func CheckMinBandwidth(gbps, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if gbps < threshold {
		return fmt.Errorf("bandwidth %.3f GB/s below threshold %.3f GB/s", gbps, threshold)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatLine writes the one-line summary. The time is the fastest timed
// pass, which is the only pass when a single run was requested.
func FormatLine(r Report, w io.Writer) {
	fmt.Fprintf(w, "N=%d T=%d time=%.6f checksum=%.3f\n",
		r.Elements, r.Threads, r.Stats.Min.Seconds(), r.Checksum)
}

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(r Report, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "N=%d T=%d precision=%s alloc=%s\n", r.Elements, r.Threads, r.Precision, r.Alloc)
	fmt.Fprintf(sb, "%-5s  %12s  %10s  %16s\n", "Run", "Time(s)", "GB/s", "Checksum")
	fmt.Fprintln(sb, strings.Repeat("-", 49))

	for _, run := range r.Runs {
		fmt.Fprintf(sb, "%-5d  %12.6f  %10.3f  %16.3f\n",
			run.Index+1,
			run.Duration.Seconds(),
			GBps(r.Bytes, run.Duration),
			run.Checksum,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 49))
	fmt.Fprintf(sb, "%-5s  %12.6f  %10.3f  %16s  (min)\n", "", r.Stats.Min.Seconds(), GBps(r.Bytes, r.Stats.Min), "")
	fmt.Fprintf(sb, "%-5s  %12.6f  %10.3f  %16s  (mean)\n", "", r.Stats.Mean.Seconds(), GBps(r.Bytes, r.Stats.Mean), "")
	fmt.Fprintf(sb, "%-5s  %12.6f  %10.3f  %16s  (max)\n", "", r.Stats.Max.Seconds(), GBps(r.Bytes, r.Stats.Max), "")

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Elements  uint64    `json:"n"`
	Threads   int       `json:"threads"`
	Precision string    `json:"precision"`
	Alloc     string    `json:"alloc"`
	Bytes     int64     `json:"bytes_per_pass"`
	Checksum  float64   `json:"checksum"`
	Runs      []jsonRun `json:"runs"`
	Stats     jsonStats `json:"stats"`
}

type jsonRun struct {
	Index    int     `json:"index"`
	Seconds  float64 `json:"seconds"`
	GBps     float64 `json:"gbps"`
	Checksum float64 `json:"checksum"`
}

type jsonStats struct {
	MinSeconds  float64 `json:"min_seconds"`
	MeanSeconds float64 `json:"mean_seconds"`
	MaxSeconds  float64 `json:"max_seconds"`
	PeakGBps    float64 `json:"peak_gbps"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(r Report, w io.Writer) error {
	jr := jsonReport{
		Elements:  r.Elements,
		Threads:   r.Threads,
		Precision: r.Precision,
		Alloc:     r.Alloc,
		Bytes:     r.Bytes,
		Checksum:  r.Checksum,
		Runs:      make([]jsonRun, len(r.Runs)),
		Stats: jsonStats{
			MinSeconds:  r.Stats.Min.Seconds(),
			MeanSeconds: r.Stats.Mean.Seconds(),
			MaxSeconds:  r.Stats.Max.Seconds(),
			PeakGBps:    GBps(r.Bytes, r.Stats.Min),
		},
	}
	for i, run := range r.Runs {
		jr.Runs[i] = jsonRun{
			Index:    run.Index,
			Seconds:  run.Duration.Seconds(),
			GBps:     GBps(r.Bytes, run.Duration),
			Checksum: run.Checksum,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
