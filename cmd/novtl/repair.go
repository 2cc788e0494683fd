package main

import (
	"fmt"
	"time"

	"github.com/oukeidos/novtl/internal/files"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/pipeline"
	"github.com/oukeidos/novtl/internal/recovery"
	"github.com/spf13/cobra"
)

var (
	runRepairPipeline = pipeline.RunRepair
	loadReport        = recovery.LoadReport
)

type repairOptions struct {
	wordpressURL string
	noSecondary  bool
	glossaryDir  string
	redisURL     string
	redisPrefix  string
	spacing      time.Duration
	concurrency  int
	allowEnv     bool
	envOnly      bool
	debug        bool
}

func newRepairCmd() *cobra.Command {
	opts := repairOptions{}
	cmd := &cobra.Command{
		Use:   "repair <report.json>",
		Short: "Re-translate the failed chapters of an earlier run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("report.json is required")
			}
			return runRepair(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.wordpressURL, "wordpress-url", "", "Publish repaired chapters to this WordPress site")
	cmd.Flags().BoolVar(&opts.noSecondary, "no-secondary", false, "Disable the machine translation fallback")
	cmd.Flags().StringVar(&opts.glossaryDir, "glossary-dir", "", "Directory for stored glossaries (default: output directory)")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "Load glossaries from Redis instead of files")
	cmd.Flags().StringVar(&opts.redisPrefix, "redis-prefix", "", "Key prefix for Redis glossaries")
	cmd.Flags().DurationVar(&opts.spacing, "spacing", 0, "Minimum gap between model calls (default 4s)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 1, "Number of chapters translated in parallel")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API keys from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	return cmd
}

func runRepair(cmd *cobra.Command, args []string, opts *repairOptions) error {
	startTime := time.Now()
	reportPath := args[0]

	if err := initLogging(opts.debug, ""); err != nil {
		return err
	}
	if err := files.RejectSymlinkPath(reportPath); err != nil {
		return err
	}
	// The provider recorded in the report decides which keys to use.
	report, err := loadReport(reportPath)
	if err != nil {
		return fmt.Errorf("failed to load run report: %w", err)
	}

	cfg := pipeline.Config{
		ReportPath:   reportPath,
		Provider:     report.Provider,
		GlossaryDir:  opts.glossaryDir,
		RedisURL:     opts.redisURL,
		RedisPrefix:  opts.redisPrefix,
		Spacing:      opts.spacing,
		Concurrency:  opts.concurrency,
		NoSecondary:  opts.noSecondary,
		WordPressURL: opts.wordpressURL,
		OnChapter: func(p pipeline.ChapterProgress) {
			logger.Info("Chapter completed", "chapter", p.Chapter, "method", p.Method, "done", p.Done, "total", p.Total)
		},
	}
	keyOpts := &runOptions{allowEnv: opts.allowEnv, envOnly: opts.envOnly}
	if err := resolveRunKeys(&cfg, keyOpts); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	result, err := runRepairPipeline(ctx, cfg)

	printRunSummary(cmd, result, time.Since(startTime))

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Repair canceled", "error", err)
			return nil
		}
		return err
	}
	return nil
}
