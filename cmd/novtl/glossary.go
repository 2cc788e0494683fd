package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oukeidos/novtl/internal/glossary"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/pipeline"
	"github.com/spf13/cobra"
)

var buildGlossaryPipeline = pipeline.BuildGlossary

func newGlossaryCmd() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "glossary <novel.json> <glossary.json>",
		Short: "Extract a name glossary without translating",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				_ = cmd.Usage()
				return fmt.Errorf("novel file and glossary output path are required")
			}
			return runGlossary(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addRunFlags(cmd, &opts)
	return cmd
}

func runGlossary(cmd *cobra.Command, args []string, opts *runOptions) error {
	inputPath, outPath := args[0], args[1]
	if err := validateNovelExtension(inputPath); err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(outPath), ".json") {
		return fmt.Errorf("glossary output must be a .json file: %s", outPath)
	}
	if err := initLogging(opts.debug, opts.logFilePath); err != nil {
		return err
	}
	if err := applyConfigFile(cmd, opts); err != nil {
		return err
	}

	if _, err := os.Stat(outPath); err == nil {
		ok, err := confirmOverwrite(outPath, opts.yes)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("Glossary extraction skipped", "output", outPath)
			return nil
		}
	}

	cfg := opts.pipelineConfig(inputPath, filepath.Dir(outPath))
	// Publishing does not apply to extraction.
	cfg.WordPressURL = ""
	if err := resolveRunKeys(&cfg, opts); err != nil {
		return err
	}
	cfg.OnGlossaryBatch = func(p glossary.BatchProgress) {
		logger.Info("Glossary batch completed", "batch", p.Batch, "total", p.Batches, "added", p.Added, "terms", p.Total)
	}

	ctx, stop := signalContext()
	defer stop()
	g, err := buildGlossaryPipeline(ctx, cfg, outPath)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Glossary extraction canceled", "error", err)
			return nil
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d glossary terms to %s\n", g.Len(), outPath)
	return nil
}
