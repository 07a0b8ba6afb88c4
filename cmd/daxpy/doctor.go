package main

import (
	"fmt"
	"math"

	"github.com/example/go-daxpy/internal/config"
	"github.com/example/go-daxpy/internal/doctor"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor [N] [T]",
		Short: "Check the runtime, CPU features and memory before benchmarking",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			// The thread count is checked by doctor.Run so a bad value is
			// reported alongside the other checks.
			if err := parsePositional(&cfg.Bench, args); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "precision: %s, alloc: %s\n", cfg.Bench.Precision, cfg.Bench.Alloc)

			dcfg := doctor.DefaultConfig(cfg.Bench.Threads, bufferBytes(cfg.Bench))
			result := doctor.Run(dcfg, out)

			if result.Failed() {
				return fmt.Errorf("doctor found %d issue(s)", len(result.Failures()))
			}
			return nil
		},
	}

	return cmd
}

// bufferBytes is the combined size of x and y, saturating on overflow.
func bufferBytes(b config.BenchConfig) uint64 {
	elem := uint64(4)
	if b.Precision == config.PrecisionF64 {
		elem = 8
	}
	if b.Elements > math.MaxUint64/(2*elem) {
		return math.MaxUint64
	}
	return 2 * elem * b.Elements
}
