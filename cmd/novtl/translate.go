package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oukeidos/novtl/internal/auth"
	"github.com/oukeidos/novtl/internal/glossary"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/pipeline"
	"github.com/oukeidos/novtl/internal/prompt"
	"github.com/oukeidos/novtl/internal/translator"
	"github.com/spf13/cobra"
)

var (
	runNovelPipeline = pipeline.RunNovel
	confirmOverwrite = prompt.DefaultConfirmer().ConfirmOverwrite
)

func newTranslateCmd() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "translate <novel.json> <output-dir>",
		Short: "Translate every chapter of a novel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				_ = cmd.Usage()
				return fmt.Errorf("novel file and output directory are required")
			}
			return runTranslate(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addRunFlags(cmd, &opts)
	return cmd
}

func runTranslate(cmd *cobra.Command, args []string, opts *runOptions) error {
	if len(args) < 2 {
		return fmt.Errorf("novel file and output directory are required")
	}
	if len(args) > 2 {
		fmt.Fprintf(os.Stderr, "Warning: expected 2 arguments but got %d. Did you forget quotes around file paths?\n", len(args))
		fmt.Fprintf(os.Stderr, "  Using novel: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "  Using output: %s\n", args[1])
	}
	if err := validateNovelExtension(args[0]); err != nil {
		return err
	}
	if err := initLogging(opts.debug, opts.logFilePath); err != nil {
		return err
	}
	if err := applyConfigFile(cmd, opts); err != nil {
		return err
	}

	if hasChapterOutput(args[1]) {
		ok, err := confirmOverwrite(args[1], opts.yes)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("Translation skipped", "output", args[1])
			return nil
		}
	}

	startTime := time.Now()
	cfg := opts.pipelineConfig(args[0], args[1])
	if err := resolveRunKeys(&cfg, opts); err != nil {
		return err
	}
	cfg.OnGlossaryBatch = func(p glossary.BatchProgress) {
		logger.Info("Glossary batch completed", "batch", p.Batch, "total", p.Batches, "added", p.Added, "terms", p.Total)
	}
	cfg.OnChapter = func(p pipeline.ChapterProgress) {
		logger.Info("Chapter completed", "chapter", p.Chapter, "method", p.Method, "done", p.Done, "total", p.Total)
	}

	ctx, stop := signalContext()
	defer stop()
	result, err := runNovelPipeline(ctx, cfg)

	printRunSummary(cmd, result, time.Since(startTime))

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Translation canceled", "error", err)
			return nil
		}
		return err
	}
	return runStatusError(result)
}

// resolveRunKeys fills the provider and publishing keys of cfg.
func resolveRunKeys(cfg *pipeline.Config, opts *runOptions) error {
	service := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if service == "" {
		service = pipeline.ProviderGemini
	}
	keys, source, err := resolveAPIKeys(service, opts.allowEnv, opts.envOnly)
	if err != nil {
		return err
	}
	logger.Info("Using API Keys", "service", service, "source", source, "count", len(keys))
	cfg.APIKeys = keys

	if cfg.WordPressURL == "" {
		return nil
	}
	wpKeys, source, err := resolveAPIKeys(auth.ServiceWordPress, opts.allowEnv, opts.envOnly)
	if err != nil {
		return err
	}
	logger.Info("Using API Key", "service", auth.ServiceWordPress, "source", source)
	cfg.WordPressKey = wpKeys[0]
	return nil
}

func printRunSummary(cmd *cobra.Command, result pipeline.RunResult, elapsed time.Duration) {
	if result.TotalChapters == 0 && result.RunID == "" {
		return
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintln(out, "\n--- Run Summary ---")
	fmt.Fprintf(out, "Status:         %s\n", result.Status)
	fmt.Fprintf(out, "Chapters:       %d\n", result.TotalChapters)
	glossarySource := "extracted"
	if result.GlossaryLoaded {
		glossarySource = "loaded"
	}
	fmt.Fprintf(out, "Glossary:       %d terms (%s)\n", result.GlossarySize, glossarySource)

	methods := make([]string, 0, len(result.Methods))
	for m := range result.Methods {
		methods = append(methods, string(m))
	}
	sort.Strings(methods)
	for _, m := range methods {
		fmt.Fprintf(out, "  %-20s %d\n", m+":", result.Methods[translator.Method(m)])
	}
	if len(result.FailedChapters) > 0 {
		fmt.Fprintf(out, "Failed:         %s\n", joinInts(result.FailedChapters))
	}
	if len(result.SkippedChapters) > 0 {
		fmt.Fprintf(out, "Skipped:        %s\n", joinInts(result.SkippedChapters))
	}
	if result.StoryID != 0 {
		fmt.Fprintf(out, "Story ID:       %d\n", result.StoryID)
	}
	if result.ReportPath != "" {
		fmt.Fprintf(out, "Report:         %s\n", result.ReportPath)
	}
	fmt.Fprintf(out, "Elapsed:        %s\n", elapsed.Round(time.Second))
	fmt.Fprintln(out, "-------------------")
}

func runStatusError(result pipeline.RunResult) error {
	switch result.Status {
	case pipeline.RunStatusSuccess:
		return nil
	case pipeline.RunStatusPartialSuccess, pipeline.RunStatusFailure:
		if result.ReportPath != "" {
			return fmt.Errorf("translation finished with status: %s (report: %s)", result.Status, result.ReportPath)
		}
		return fmt.Errorf("translation finished with status: %s", result.Status)
	default:
		return fmt.Errorf("translation finished with unknown status: %q", result.Status)
	}
}

func validateNovelExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Errorf("unsupported novel extension %q (supported: .json)", ext)
}

func hasChapterOutput(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, pipeline.ChapterFileName(1)))
	return err == nil
}
