package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"carprice/config"
	"carprice/pkg/batch"
	"carprice/pkg/collector"
	"carprice/pkg/estimate/service"
	"carprice/pkg/logger"
	"carprice/pkg/predict"

	estimateSvcImp "carprice/pkg/estimate/serviceImp"
)

func main() {
	var inPath, outPath string
	flag.StringVar(&inPath, "in", "", "Input .xlsx workbook (required)")
	flag.StringVar(&outPath, "out", "estimates.xlsx", "Output .xlsx workbook")
	flag.Parse()

	if err := start(inPath, outPath); err != nil {
		slog.Error("batch aborted", "error", err)
		os.Exit(1)
	}
}

func start(inPath, outPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := predict.NewHTTP(cfg.PredictURL, cfg.PredictTimeout)
	svc := estimateSvcImp.New(collector.New(cfg.MinYear, cfg.MaxYear, cfg.StrictInput), client, cfg.ReferenceYear)
	return run(ctx, svc, inPath, outPath)
}

// run writes outPath only once the whole workbook has been estimated, so an
// aborted run never leaves a partial or empty file behind.
func run(ctx context.Context, svc service.EstimateService, inPath, outPath string) error {
	if inPath == "" {
		return errors.New("input workbook is required, use -in")
	}
	if same, err := samePath(inPath, outPath); err != nil {
		return err
	} else if same {
		return fmt.Errorf("-out %q would overwrite the input workbook", outPath)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	var buf bytes.Buffer
	sum, err := batch.NewRunner(svc).Run(ctx, in, &buf)
	if err != nil {
		return fmt.Errorf("after %d rows: %w", sum.Rows, err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("wrote estimates", "path", outPath, "rows", sum.Rows, "failed", sum.Failed)
	return nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if absA == absB {
		return true, nil
	}
	sa, errA := os.Stat(a)
	sb, errB := os.Stat(b)
	if errA != nil || errB != nil {
		// a missing output cannot be the input
		return false, nil
	}
	return os.SameFile(sa, sb), nil
}
