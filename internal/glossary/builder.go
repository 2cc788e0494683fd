package glossary

import (
	"context"
	"fmt"
	"time"

	"github.com/oukeidos/novtl/internal/chunker"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/novel"
	"github.com/oukeidos/novtl/internal/retry"
)

const (
	DefaultBatchSize   = 20
	DefaultExcerptSize = 50
	DefaultTemperature = 0.2
	// DefaultPacing separates consecutive batches.
	DefaultPacing = 5 * time.Second

	defaultPerChapterLimit = 3000
	defaultBatchTextLimit  = 15000
)

// Invoker issues a single model call.
type Invoker interface {
	Invoke(ctx context.Context, model, prompt string, temperature float32) (string, error)
}

// Builder extracts a glossary from a chapter sequence batch by batch.
type Builder struct {
	Invoker     Invoker
	Retry       *retry.Controller
	Policy      retry.Policy
	Model       string
	Temperature float32
	ExcerptSize int
	Pacing      time.Duration
	// OnBatch is called after each merged batch.
	OnBatch func(BatchProgress)

	sleep func(ctx context.Context, d time.Duration) error
}

// BatchProgress reports one finished batch.
type BatchProgress struct {
	Batch   int
	Batches int
	Added   int
	Total   int
}

// NewBuilder returns a Builder with the glossary retry policy.
func NewBuilder(invoker Invoker, ctrl *retry.Controller, model string) *Builder {
	return &Builder{
		Invoker:     invoker,
		Retry:       ctrl,
		Policy:      retry.GlossaryPolicy(),
		Model:       model,
		Temperature: DefaultTemperature,
		ExcerptSize: DefaultExcerptSize,
		Pacing:      DefaultPacing,
	}
}

// Build partitions chapters into batches of batchSize and merges every
// batch's extraction into one glossary, strictly in order. If any batch
// fails the whole build fails and no glossary is returned.
func (b *Builder) Build(ctx context.Context, chapters []novel.Chapter, batchSize int) (Glossary, error) {
	if b.Invoker == nil || b.Retry == nil {
		return Glossary{}, fmt.Errorf("glossary builder is not configured")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	batches := chunker.SplitIntoBatches(chapters, batchSize)
	logger.Info("Building glossary", "chapters", len(chapters), "batches", len(batches))

	var acc Glossary
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return Glossary{}, err
		}
		if batch.Index > 0 {
			if err := b.pause(ctx); err != nil {
				return Glossary{}, err
			}
		}

		snapshot := acc.Excerpt(b.ExcerptSize)
		prompt := ExtractionPrompt(batch.Items, snapshot, defaultPerChapterLimit, defaultBatchTextLimit)
		ex, err := retry.Execute(ctx, b.Retry, b.Policy, func(ctx context.Context) (Extraction, error) {
			text, err := b.Invoker.Invoke(ctx, b.Model, prompt, b.Temperature)
			if err != nil {
				return Extraction{}, err
			}
			return ParseExtraction(text)
		})
		if err != nil {
			logger.Error("Glossary batch failed, aborting build", "batch", batch.Index+1, "batches", len(batches), "error", err)
			return Glossary{}, fmt.Errorf("glossary batch %d/%d: %w", batch.Index+1, len(batches), err)
		}

		var added int
		acc, added = acc.Merge(ex.Entries())
		logger.Info("Glossary batch merged",
			"batch", batch.Index+1,
			"characters", len(ex.Characters),
			"places", len(ex.Places),
			"terms", len(ex.Terms),
			"added", added,
			"total", acc.Len(),
		)
		if b.OnBatch != nil {
			b.OnBatch(BatchProgress{Batch: batch.Index + 1, Batches: len(batches), Added: added, Total: acc.Len()})
		}
	}
	return acc, nil
}

func (b *Builder) pause(ctx context.Context) error {
	if b.Pacing <= 0 {
		return nil
	}
	if b.sleep != nil {
		return b.sleep(ctx, b.Pacing)
	}
	t := time.NewTimer(b.Pacing)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
