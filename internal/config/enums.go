package config

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	AllocHeap = "heap"
	AllocMmap = "mmap"

	PrecisionF32 = "f32"
	PrecisionF64 = "f64"

	FormatLine  = "line"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

func NormalizeAlloc(raw string) (string, error) {
	alloc := strings.ToLower(strings.TrimSpace(raw))
	switch alloc {
	case "":
		return AllocHeap, nil
	case AllocHeap, AllocMmap:
		return alloc, nil
	case "anon", "mmap-anon":
		return AllocMmap, nil
	default:
		return "", fmt.Errorf("invalid alloc %q (expected %s|%s)", raw, AllocHeap, AllocMmap)
	}
}

func NormalizePrecision(raw string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(raw))
	switch p {
	case "", PrecisionF32, "float32", "single":
		return PrecisionF32, nil
	case PrecisionF64, "float64", "double":
		return PrecisionF64, nil
	default:
		return "", fmt.Errorf("invalid precision %q (expected %s|%s)", raw, PrecisionF32, PrecisionF64)
	}
}

// NormalizeFormat accepts every report format. Commands that support only a
// subset check the canonical value themselves.
func NormalizeFormat(raw string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(raw))
	switch f {
	case "":
		return FormatLine, nil
	case FormatLine, FormatTable, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf(
			"invalid format %q (expected %s|%s|%s|%s)",
			raw, FormatLine, FormatTable, FormatJSON, FormatCSV,
		)
	}
}

// ParseLogLevel converts a level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}
