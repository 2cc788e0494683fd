package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/oukeidos/novtl/internal/backend"
	"github.com/oukeidos/novtl/internal/glossary"
	"github.com/oukeidos/novtl/internal/glossary/store"
	"github.com/oukeidos/novtl/internal/metadata"
	"github.com/oukeidos/novtl/internal/recovery"
	"github.com/oukeidos/novtl/internal/secondary"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all configuration required for running a novel or repair session.
type Config struct {
	// IO Paths
	InputPath string
	OutputDir string
	// ReportPath is the run report to read for repair. Translation runs
	// pick a fresh path inside OutputDir.
	ReportPath string

	// Glossary storage. RedisURL wins over GlossaryDir; GlossaryDir
	// defaults to OutputDir.
	GlossaryDir     string
	RedisURL        string
	RedisPrefix     string
	RedisTTL        time.Duration
	RebuildGlossary bool

	// API Configuration
	Provider     string
	BaseURL      string
	APIKeys      []string
	Model        string
	ExtractModel string
	Spacing      time.Duration
	CallTimeout  time.Duration

	// Processing Parameters
	BatchSize   int
	Concurrency int
	NoSecondary bool

	// Languages
	SourceLang string
	TargetLang string

	// Publishing
	WordPressURL string
	WordPressKey string

	// OnlyChapters restricts translation to these chapter numbers.
	OnlyChapters []int

	// Callbacks
	OnChapter       func(ChapterProgress)
	OnGlossaryBatch func(glossary.BatchProgress)

	// Collaborators. Nil selects the production implementation.
	Generator backend.Generator
	Secondary secondary.Translator
	Store     store.Store

	// prior is the report a repair run updates.
	prior *recovery.Report
}

const (
	MinConcurrency = 1
	MaxConcurrency = 8
	MaxBatchSize   = 50

	DefaultSourceLang = "zh"
	DefaultTargetLang = "en"
)

func ClampConcurrency(value int) (int, bool) {
	if value < MinConcurrency {
		return MinConcurrency, true
	}
	if value > MaxConcurrency {
		return MaxConcurrency, true
	}
	return value, false
}

// Normalize fills defaults and applies safe bounds, returning any adjustments.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	tr, ex := metadata.Defaults(c.Provider)
	if c.Model == "" {
		c.Model = tr
	}
	if c.ExtractModel == "" {
		c.ExtractModel = ex
	}
	if c.SourceLang == "" {
		c.SourceLang = DefaultSourceLang
	}
	if c.TargetLang == "" {
		c.TargetLang = DefaultTargetLang
	}
	if c.BatchSize == 0 {
		c.BatchSize = glossary.DefaultBatchSize
	}
	if c.Spacing == 0 {
		c.Spacing = backend.DefaultSpacing
	}
	if c.GlossaryDir == "" {
		c.GlossaryDir = c.OutputDir
	}
	if clamped, changed := ClampConcurrency(c.Concurrency); changed {
		if c.Concurrency != 0 {
			notes = append(notes, fmt.Sprintf("concurrency clamped from %d to %d (max %d)", c.Concurrency, clamped, MaxConcurrency))
		}
		c.Concurrency = clamped
	}
	if c.BatchSize > MaxBatchSize {
		notes = append(notes, fmt.Sprintf("batch-size clamped from %d to %d (max %d)", c.BatchSize, MaxBatchSize, MaxBatchSize))
		c.BatchSize = MaxBatchSize
	}
	return c, notes
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Provider != ProviderGemini && c.Provider != ProviderOpenAI {
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if len(c.APIKeys) == 0 {
		return fmt.Errorf("at least one API key is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than 0, got %d", c.BatchSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0, got %d", c.Concurrency)
	}
	if c.Spacing < 0 {
		return fmt.Errorf("spacing must be 0 or greater, got %s", c.Spacing)
	}
	src, err := secondary.ParseLanguage(c.SourceLang)
	if err != nil {
		return fmt.Errorf("unsupported source language: %s", c.SourceLang)
	}
	tgt, err := secondary.ParseLanguage(c.TargetLang)
	if err != nil {
		return fmt.Errorf("unsupported target language: %s", c.TargetLang)
	}
	if secondary.Code(src) == secondary.Code(tgt) {
		return fmt.Errorf("source and target languages must be different (%s)", c.SourceLang)
	}
	if c.WordPressURL != "" && strings.TrimSpace(c.WordPressKey) == "" {
		return fmt.Errorf("WordPress API key is required when publishing")
	}
	for _, n := range c.OnlyChapters {
		if n <= 0 {
			return fmt.Errorf("invalid chapter number: %d", n)
		}
	}
	return nil
}
