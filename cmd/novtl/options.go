package main

import (
	"fmt"
	"time"

	"github.com/oukeidos/novtl/internal/config"
	"github.com/oukeidos/novtl/internal/glossary"
	"github.com/oukeidos/novtl/internal/pipeline"
	"github.com/spf13/cobra"
)

// runOptions are the flags shared by the translate and glossary commands.
type runOptions struct {
	configPath      string
	provider        string
	baseURL         string
	modelName       string
	extractModel    string
	batchSize       int
	concurrency     int
	spacing         time.Duration
	callTimeout     time.Duration
	sourceLangCode  string
	targetLangCode  string
	noSecondary     bool
	glossaryDir     string
	redisURL        string
	redisPrefix     string
	redisTTL        time.Duration
	rebuildGlossary bool
	wordpressURL    string
	yes             bool
	logFilePath     string
	allowEnv        bool
	envOnly         bool
	debug           bool
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a YAML run file; explicit flags win")
	cmd.Flags().StringVar(&opts.provider, "provider", pipeline.ProviderGemini, "Model provider (gemini or openai)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Base URL of an OpenAI-compatible endpoint")
	cmd.Flags().StringVar(&opts.modelName, "model", "", "Translation model (default depends on provider)")
	cmd.Flags().StringVar(&opts.extractModel, "extract-model", "", "Glossary extraction model (default depends on provider)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", glossary.DefaultBatchSize, fmt.Sprintf("Chapters per glossary extraction batch (max %d)", pipeline.MaxBatchSize))
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 1, fmt.Sprintf("Number of chapters translated in parallel (%d-%d)", pipeline.MinConcurrency, pipeline.MaxConcurrency))
	cmd.Flags().DurationVar(&opts.spacing, "spacing", 0, "Minimum gap between model calls (default 4s)")
	cmd.Flags().DurationVar(&opts.callTimeout, "call-timeout", 0, "Timeout of a single model call (default 5m)")
	cmd.Flags().StringVar(&opts.sourceLangCode, "source", pipeline.DefaultSourceLang, "Source language code")
	cmd.Flags().StringVar(&opts.targetLangCode, "target", pipeline.DefaultTargetLang, "Target language code")
	cmd.Flags().BoolVar(&opts.noSecondary, "no-secondary", false, "Disable the machine translation fallback")
	cmd.Flags().StringVar(&opts.glossaryDir, "glossary-dir", "", "Directory for stored glossaries (default: output directory)")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "Store glossaries in Redis instead of files")
	cmd.Flags().StringVar(&opts.redisPrefix, "redis-prefix", "", "Key prefix for Redis glossaries")
	cmd.Flags().DurationVar(&opts.redisTTL, "redis-ttl", 0, "Expiry of Redis glossaries (0 keeps them)")
	cmd.Flags().BoolVar(&opts.rebuildGlossary, "rebuild-glossary", false, "Ignore the stored glossary and extract a new one")
	cmd.Flags().StringVar(&opts.wordpressURL, "wordpress-url", "", "Publish translated chapters to this WordPress site")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Overwrite output files without asking")
	cmd.Flags().StringVar(&opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API keys from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
}

// applyConfigFile copies values from the run file into opts for every flag
// the user did not set explicitly.
func applyConfigFile(cmd *cobra.Command, opts *runOptions) error {
	if opts.configPath == "" {
		return nil
	}
	f, err := loadConfigFile(opts.configPath)
	if err != nil {
		return err
	}
	d, err := f.Durations()
	if err != nil {
		return err
	}
	unset := func(name string) bool {
		return !cmd.Flags().Changed(name)
	}

	if f.Provider != "" && unset("provider") {
		opts.provider = f.Provider
	}
	if f.BaseURL != "" && unset("base-url") {
		opts.baseURL = f.BaseURL
	}
	if f.Model != "" && unset("model") {
		opts.modelName = f.Model
	}
	if f.ExtractModel != "" && unset("extract-model") {
		opts.extractModel = f.ExtractModel
	}
	if f.BatchSize != 0 && unset("batch-size") {
		opts.batchSize = f.BatchSize
	}
	if f.Concurrency != 0 && unset("concurrency") {
		opts.concurrency = f.Concurrency
	}
	if d.Spacing != 0 && unset("spacing") {
		opts.spacing = d.Spacing
	}
	if d.CallTimeout != 0 && unset("call-timeout") {
		opts.callTimeout = d.CallTimeout
	}
	if f.Source != "" && unset("source") {
		opts.sourceLangCode = f.Source
	}
	if f.Target != "" && unset("target") {
		opts.targetLangCode = f.Target
	}
	if f.NoSecondary && unset("no-secondary") {
		opts.noSecondary = true
	}
	if f.GlossaryDir != "" && unset("glossary-dir") {
		opts.glossaryDir = f.GlossaryDir
	}
	if f.RebuildGlossary && unset("rebuild-glossary") {
		opts.rebuildGlossary = true
	}
	if f.Redis.URL != "" && unset("redis-url") {
		opts.redisURL = f.Redis.URL
	}
	if f.Redis.Prefix != "" && unset("redis-prefix") {
		opts.redisPrefix = f.Redis.Prefix
	}
	if d.RedisTTL != 0 && unset("redis-ttl") {
		opts.redisTTL = d.RedisTTL
	}
	if f.WordPress.URL != "" && unset("wordpress-url") {
		opts.wordpressURL = f.WordPress.URL
	}
	return nil
}

var loadConfigFile = config.Load

// pipelineConfig maps the options onto a pipeline configuration. Keys are
// resolved separately.
func (o *runOptions) pipelineConfig(inputPath, outputDir string) pipeline.Config {
	return pipeline.Config{
		InputPath:       inputPath,
		OutputDir:       outputDir,
		GlossaryDir:     o.glossaryDir,
		RedisURL:        o.redisURL,
		RedisPrefix:     o.redisPrefix,
		RedisTTL:        o.redisTTL,
		RebuildGlossary: o.rebuildGlossary,
		Provider:        o.provider,
		BaseURL:         o.baseURL,
		Model:           o.modelName,
		ExtractModel:    o.extractModel,
		Spacing:         o.spacing,
		CallTimeout:     o.callTimeout,
		BatchSize:       o.batchSize,
		Concurrency:     o.concurrency,
		NoSecondary:     o.noSecondary,
		SourceLang:      o.sourceLangCode,
		TargetLang:      o.targetLangCode,
		WordPressURL:    o.wordpressURL,
	}
}
