package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/example/go-daxpy/internal/bench"
	"github.com/example/go-daxpy/internal/config"
	"github.com/example/go-daxpy/internal/partition"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg config.Config
	loaded    bool
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	var minGBps float64

	cmd := &cobra.Command{
		Use:   "daxpy [N] [T]",
		Short: "Multi-threaded AXPY (y = a*x + y) memory-bandwidth benchmark",
		Long: "Runs y = a*x + y over N elements split across T workers and prints\n" +
			"the compute time and a checksum of y. N defaults to 10000000, T to 4.",
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = cfg
			loaded = true
			setupLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := applyPositional(&cfg.Bench, args); err != nil {
				return err
			}
			if cfg.Output.Format == config.FormatCSV {
				return fmt.Errorf("--format %s is only supported by sweep", config.FormatCSV)
			}

			res, err := runBenchmark(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			report := res.Report()

			out := cmd.OutOrStdout()
			switch cfg.Output.Format {
			case config.FormatJSON:
				if err := bench.FormatJSON(report, out); err != nil {
					return err
				}
			case config.FormatTable:
				bench.FormatTable(report, out)
			default:
				bench.FormatLine(report, out)
			}

			return bench.CheckMinBandwidth(bench.GBps(report.Bytes, report.Stats.Min), minGBps)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.Flags().Float64Var(&minGBps, "min-gbps", 0, "Exit non-zero if peak bandwidth is below this value (0 = disabled)")

	cmd.AddCommand(newSweepCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(w io.Writer, levelStr string) {
	lvl, err := config.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if !loaded {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

// applyPositional overrides the element and thread counts with positional
// arguments and rejects thread counts outside [1, partition.MaxWorkers].
// Unlike a bare strtoull/atoi, malformed values are rejected.
func applyPositional(b *config.BenchConfig, args []string) error {
	if err := parsePositional(b, args); err != nil {
		return err
	}

	if err := partition.CheckWorkers(b.Threads); err != nil {
		return fmt.Errorf("invalid thread count: %w", err)
	}

	return nil
}

// parsePositional is applyPositional without the thread range check.
func parsePositional(b *config.BenchConfig, args []string) error {
	if len(args) > 0 {
		n, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid element count %q: %w", args[0], err)
		}
		b.Elements = n
	}

	if len(args) > 1 {
		t, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid thread count %q: %w", args[1], err)
		}
		b.Threads = t
	}

	return nil
}
