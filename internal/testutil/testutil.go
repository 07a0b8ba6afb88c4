// Package testutil provides shared skip helpers and assertions for tests.
//
// Each Require helper calls t.Skip with a clear human-readable reason when
// the named prerequisite is absent, so large-buffer tests remain runnable on
// small or sandboxed machines without failing noisily.
//
// Typical usage:
//
//	func TestLargeRun(t *testing.T) {
//	    testutil.RequirePhysicalMemory(t, 2<<30)
//	    ...
//	}
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/example/go-daxpy/internal/buffer"
	"golang.org/x/exp/constraints"
)

// RequirePhysicalMemory skips the test unless the machine reports at least
// twice bytes of RAM plus swap. Machines that do not report memory are
// allowed through.
func RequirePhysicalMemory(tb testing.TB, bytes uint64) {
	tb.Helper()

	total := buffer.PhysicalMemory()
	if total != 0 && total/2 < bytes {
		tb.Skipf("need %d bytes of headroom, machine reports %d bytes of RAM plus swap", bytes, total)
	}
}

// RequireMmap skips the test if anonymous mappings are not available.
func RequireMmap(tb testing.TB) {
	tb.Helper()

	v, err := buffer.New[float32](buffer.Mmap{}, 16)
	if err != nil {
		tb.Skipf("anonymous mmap not available: %v", err)
	}

	_ = v.Release()
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RequireFloatsEqual fails the test at the first index where got and want
// differ exactly.
func RequireFloatsEqual[T constraints.Float](tb testing.TB, got, want []T) {
	tb.Helper()

	if len(got) != len(want) {
		tb.Fatalf("len(got)=%d want=%d", len(got), len(want))
	}

	for i := range got {
		if got[i] != want[i] {
			tb.Fatalf("got[%d]=%v want=%v", i, got[i], want[i])
		}
	}
}
