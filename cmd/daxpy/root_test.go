package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-daxpy/internal/buffer"
	"github.com/example/go-daxpy/internal/config"
	"github.com/example/go-daxpy/internal/partition"
)

// execute runs a fresh root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	origCfg, origLoaded := activeCfg, loaded
	t.Cleanup(func() { activeCfg, loaded = origCfg, origLoaded })

	var out bytes.Buffer

	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.Execute()

	return out.String(), err
}

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"sweep", "doctor"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentFlags(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"config", "bench-alpha", "bench-alloc", "format", "log-level"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s persistent flag to be registered", name)
		}
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "not-a-level"} {
		setupLogger(io.Discard, level)
	}
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	origCfg, origLoaded := activeCfg, loaded
	t.Cleanup(func() { activeCfg, loaded = origCfg, origLoaded })

	loaded = false

	if _, err := requireConfig(); err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestApplyPositional(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantN       uint64
		wantThreads int
		wantErr     bool
	}{
		{"defaults", nil, 10_000_000, 4, false},
		{"n only", []string{"1000"}, 1000, 4, false},
		{"n and t", []string{"10", "2"}, 10, 2, false},
		{"zero n", []string{"0", "1"}, 0, 1, false},
		{"non-numeric n", []string{"ten"}, 0, 0, true},
		{"negative n", []string{"-5"}, 0, 0, true},
		{"non-numeric t", []string{"10", "two"}, 0, 0, true},
		{"zero t", []string{"10", "0"}, 0, 0, true},
		{"max t", []string{"10", "65536"}, 10, 65536, false},
		{"t above limit", []string{"10", "65537"}, 0, 0, true},
		{"t max int", []string{"10", "9223372036854775807"}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := config.DefaultConfig().Bench

			err := applyPositional(&b, tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("applyPositional(%v) = nil; want error", tt.args)
				}

				return
			}

			if err != nil {
				t.Fatalf("applyPositional(%v) error = %v", tt.args, err)
			}

			if b.Elements != tt.wantN || b.Threads != tt.wantThreads {
				t.Errorf("got N=%d T=%d; want N=%d T=%d", b.Elements, b.Threads, tt.wantN, tt.wantThreads)
			}
		})
	}
}

func TestRoot_LineOutput(t *testing.T) {
	out, err := execute(t, "10", "2", "--log-level=error")
	if err != nil {
		t.Fatalf("Execute error = %v", err)
	}

	if strings.Count(out, "\n") != 1 {
		t.Errorf("want exactly one line, got %q", out)
	}

	if !strings.HasPrefix(out, "N=10 T=2 time=") || !strings.HasSuffix(out, " checksum=55.000\n") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRoot_ZeroElements(t *testing.T) {
	out, err := execute(t, "0", "4", "--log-level=error")
	if err != nil {
		t.Fatalf("Execute error = %v", err)
	}

	if !strings.HasSuffix(out, "checksum=0.000\n") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRoot_MoreThreadsThanElements(t *testing.T) {
	out, err := execute(t, "3", "8", "--log-level=error", "--bench-verify")
	if err != nil {
		t.Fatalf("Execute error = %v", err)
	}

	// y = [1, 2, 3]
	if !strings.HasPrefix(out, "N=3 T=8 ") || !strings.HasSuffix(out, "checksum=6.000\n") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRoot_AllocationFailure(t *testing.T) {
	_, err := execute(t, "4611686018427387904", "4", "--log-level=error")
	if !errors.Is(err, buffer.ErrAlloc) {
		t.Fatalf("error = %v; want ErrAlloc", err)
	}

	if !strings.Contains(err.Error(), "alloc") {
		t.Errorf("diagnostic %q does not name the allocation", err.Error())
	}
}

func TestRoot_ExceedsPhysicalMemory(t *testing.T) {
	if buffer.PhysicalMemory() == 0 {
		t.Skip("physical memory size unknown on this platform")
	}

	// 4 TiB per float32 vector: representable, but larger than any test host.
	const n = "1099511627776"
	if buffer.PhysicalMemory() >= 8<<40 {
		t.Skip("host reports more than 8 TiB of RAM plus swap")
	}

	for _, alloc := range []string{"heap", "mmap"} {
		_, err := execute(t, n, "4", "--bench-alloc="+alloc, "--log-level=error")
		if !errors.Is(err, buffer.ErrAlloc) {
			t.Fatalf("%s: error = %v; want ErrAlloc", alloc, err)
		}

		if !strings.Contains(err.Error(), "alloc") || !strings.Contains(err.Error(), "exceeds physical memory and swap") {
			t.Errorf("%s: diagnostic %q does not name the allocation and the memory limit", alloc, err)
		}
	}
}

func TestRoot_RejectsMalformedArguments(t *testing.T) {
	for _, args := range [][]string{
		{"abc"},
		{"10", "x"},
		{"10", "0"},
		{"1", "2", "3"},
		{"10", "--format=csv"},
	} {
		if _, err := execute(t, append(args, "--log-level=error")...); err == nil {
			t.Errorf("args %v: expected error", args)
		}
	}
}

func TestRoot_HugeThreadCountFailsCleanly(t *testing.T) {
	for _, threads := range []string{"9223372036854775807", "8589934592", "65537"} {
		_, err := execute(t, "10", threads, "--log-level=error")
		if !errors.Is(err, partition.ErrTooManyWorkers) {
			t.Errorf("T=%s: error = %v; want ErrTooManyWorkers", threads, err)
		}
	}

	if _, err := execute(t, "10", "--bench-threads=9223372036854775807", "--log-level=error"); !errors.Is(err, partition.ErrTooManyWorkers) {
		t.Errorf("--bench-threads: error = %v; want ErrTooManyWorkers", err)
	}

	if _, err := execute(t, "sweep", "10", "--threads=1,9223372036854775807", "--log-level=error"); !errors.Is(err, partition.ErrTooManyWorkers) {
		t.Errorf("sweep: error = %v; want ErrTooManyWorkers", err)
	}
}

func TestRoot_JSONOutput(t *testing.T) {
	out, err := execute(t, "1000", "3", "--format=json", "--bench-runs=2", "--bench-precision=f64", "--log-level=error")
	if err != nil {
		t.Fatalf("Execute error = %v", err)
	}

	var rep struct {
		N         uint64  `json:"n"`
		Threads   int     `json:"threads"`
		Precision string  `json:"precision"`
		Checksum  float64 `json:"checksum"`
		Runs      []any   `json:"runs"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}

	if rep.N != 1000 || rep.Threads != 3 || rep.Precision != "f64" || len(rep.Runs) != 2 {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestRoot_TableOutputWithMmap(t *testing.T) {
	out, err := execute(t, "4096", "2", "--format=table", "--bench-alloc=mmap", "--log-level=error")
	if err != nil {
		t.Fatalf("Execute error = %v", err)
	}

	if !strings.Contains(out, "alloc=mmap") || !strings.Contains(out, "(mean)") {
		t.Errorf("unexpected table:\n%s", out)
	}
}

func TestRoot_MinBandwidthGate(t *testing.T) {
	_, err := execute(t, "16", "1", "--min-gbps=1e12", "--log-level=error")
	if err == nil {
		t.Fatal("expected bandwidth gate to fail")
	}
}

func TestRoot_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "daxpy.yaml")

	content := "log_level: error\nbench:\n  elements: 10\n  threads: 5\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := execute(t, "--config", cfgFile)
	if err != nil {
		t.Fatalf("Execute error = %v", err)
	}

	if !strings.HasPrefix(out, "N=10 T=5 ") || !strings.HasSuffix(out, "checksum=55.000\n") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestSweep_CSV(t *testing.T) {
	out, err := execute(t, "sweep", "10", "--threads=1,2,16", "--format=csv", "--log-level=error")
	if err != nil {
		t.Fatalf("Execute error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v\n%s", err, out)
	}

	if len(records) != 4 {
		t.Fatalf("want header + 3 rows, got %d:\n%s", len(records), out)
	}

	for _, r := range records[1:] {
		if r[3] != "55.000" {
			t.Errorf("row %v: checksum %q; want 55.000", r, r[3])
		}
	}
}

func TestSweep_Table(t *testing.T) {
	out, err := execute(t, "sweep", "100", "--threads=2,4", "--log-level=error")
	if err != nil {
		t.Fatalf("Execute error = %v", err)
	}

	if !strings.Contains(out, "Threads") || strings.Count(out, "\n") != 4 {
		t.Errorf("unexpected table:\n%s", out)
	}
}

func TestSweep_RejectsInvalidThreads(t *testing.T) {
	if _, err := execute(t, "sweep", "10", "--threads=1,0", "--log-level=error"); err == nil {
		t.Error("expected error for zero thread count")
	}
}

func TestDoctor_Runs(t *testing.T) {
	out, err := execute(t, "doctor", "1000", "1", "--log-level=error")
	if err != nil {
		t.Fatalf("Execute error = %v\n%s", err, out)
	}

	for _, want := range []string{"precision: f32", "runtime:", "threads: 1", "simd:", "mmap allocator"} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctor_ReportsInvalidThreads(t *testing.T) {
	for _, threads := range []string{"0", "9223372036854775807"} {
		out, err := execute(t, "doctor", "1000", threads, "--log-level=error")
		if err == nil {
			t.Errorf("T=%s: expected doctor failure", threads)
		}

		if !strings.Contains(out, "threads: "+threads+" (must be") {
			t.Errorf("T=%s: doctor output missing thread failure:\n%s", threads, out)
		}
	}
}

func TestBufferBytes(t *testing.T) {
	b := config.BenchConfig{Elements: 10, Precision: config.PrecisionF32}
	if got := bufferBytes(b); got != 80 {
		t.Errorf("bufferBytes(f32, 10) = %d; want 80", got)
	}

	b.Precision = config.PrecisionF64
	if got := bufferBytes(b); got != 160 {
		t.Errorf("bufferBytes(f64, 10) = %d; want 160", got)
	}

	b.Elements = 1 << 62
	if got := bufferBytes(b); got != ^uint64(0) {
		t.Errorf("bufferBytes overflow = %d; want saturation", got)
	}
}
