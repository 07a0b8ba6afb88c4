package main

import (
	"fmt"
	"log/slog"

	"github.com/example/go-daxpy/internal/bench"
	"github.com/example/go-daxpy/internal/config"
	"github.com/example/go-daxpy/internal/partition"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var threads []int

	cmd := &cobra.Command{
		Use:   "sweep [N]",
		Short: "Run the benchmark across thread counts and report speed-up versus T=1",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := applyPositional(&cfg.Bench, args); err != nil {
				return err
			}
			if len(threads) == 0 {
				return fmt.Errorf("--threads must list at least one thread count")
			}
			for _, t := range threads {
				if err := partition.CheckWorkers(t); err != nil {
					return fmt.Errorf("--threads: %w", err)
				}
			}

			reports := make([]bench.Report, 0, len(threads))
			for _, t := range threads {
				run := cfg
				run.Bench.Threads = t

				res, err := runBenchmark(cmd.Context(), run, slog.Default().With(slog.String("cmd", "sweep")))
				if err != nil {
					return fmt.Errorf("sweep T=%d: %w", t, err)
				}
				reports = append(reports, res.Report())
			}

			rows := bench.NewSweep(reports)

			out := cmd.OutOrStdout()
			switch cfg.Output.Format {
			case config.FormatCSV:
				return bench.FormatSweepCSV(rows, out)
			case config.FormatJSON:
				return bench.FormatSweepJSON(rows, out)
			default:
				bench.FormatSweepTable(rows, out)
				return nil
			}
		},
	}

	cmd.Flags().IntSliceVar(&threads, "threads", []int{1, 2, 4, 8}, "Thread counts to run, comma separated")

	return cmd
}
