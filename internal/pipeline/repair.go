package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/oukeidos/novtl/internal/files"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/recovery"
)

// RunRepair re-translates the failed chapters listed in the report at
// cfg.ReportPath with the settings recorded in it, then updates that report.
// Runtime-only settings (keys, publishing, stores) come from cfg.
func RunRepair(ctx context.Context, cfg Config) (RunResult, error) {
	if cfg.ReportPath == "" {
		return RunResult{}, fmt.Errorf("report path is required for repair")
	}
	if err := files.RejectSymlinkPath(cfg.ReportPath); err != nil {
		return RunResult{}, err
	}
	report, err := recovery.LoadReport(cfg.ReportPath)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to load run report: %w", err)
	}
	if err := report.Validate(); err != nil {
		return RunResult{}, fmt.Errorf("invalid run report: %w", err)
	}

	inputPath := recovery.ResolvePath(cfg.ReportPath, report.InputPath)
	if _, err := os.Stat(inputPath); err != nil {
		return RunResult{}, fmt.Errorf("invalid run report: input file not found: %s", report.InputPath)
	}
	inputHash, err := recovery.HashFileHex(inputPath)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to compute input hash: %w", err)
	}
	if inputHash != report.InputHash {
		return RunResult{}, fmt.Errorf("input file content mismatch: expected %s, got %s", report.InputHash, inputHash)
	}

	cfg.InputPath = inputPath
	cfg.OutputDir = recovery.ResolvePath(cfg.ReportPath, report.OutputDir)
	cfg.Provider = report.Provider
	cfg.Model = report.Model
	cfg.ExtractModel = report.ExtractModel
	cfg.SourceLang = report.SourceLang
	cfg.TargetLang = report.TargetLang
	cfg.OnlyChapters = report.FailedChapters
	cfg.RebuildGlossary = false
	cfg.prior = report

	logger.Info("Starting repair", "report", cfg.ReportPath, "model", report.Model, "failed_chapters", len(report.FailedChapters))
	result, err := RunNovel(ctx, cfg)
	if err != nil {
		return result, fmt.Errorf("repair failed: %w", err)
	}
	if len(result.FailedChapters) > 0 {
		return result, fmt.Errorf("repair finished with %d failed chapters", len(result.FailedChapters))
	}
	return result, nil
}
