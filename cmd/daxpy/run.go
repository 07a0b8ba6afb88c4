package main

import (
	"context"
	"log/slog"

	"github.com/example/go-daxpy/internal/buffer"
	"github.com/example/go-daxpy/internal/config"
	"github.com/example/go-daxpy/internal/daxpy"
)

func benchOptions(cfg config.BenchConfig, logger *slog.Logger) (daxpy.Options, error) {
	alloc, err := buffer.ForName(cfg.Alloc)
	if err != nil {
		return daxpy.Options{}, err
	}

	return daxpy.Options{
		Elements:  cfg.Elements,
		Threads:   cfg.Threads,
		Alpha:     cfg.Alpha,
		Precision: cfg.Precision,
		Allocator: alloc,
		Runs:      cfg.Runs,
		Warmup:    cfg.Warmup,
		Verify:    cfg.Verify,
		Logger:    logger,
	}, nil
}

func runBenchmark(ctx context.Context, cfg config.Config, logger *slog.Logger) (daxpy.Result, error) {
	opts, err := benchOptions(cfg.Bench, logger)
	if err != nil {
		return daxpy.Result{}, err
	}

	return daxpy.Run(ctx, opts)
}
