package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/oukeidos/novtl/internal/backend"
	"github.com/oukeidos/novtl/internal/gemini"
	"github.com/oukeidos/novtl/internal/glossary"
	"github.com/oukeidos/novtl/internal/glossary/store"
	"github.com/oukeidos/novtl/internal/keypool"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/openai"
	"github.com/oukeidos/novtl/internal/retry"
)

// Retry budgets and pacing. Tests swap these for fast schedules.
var (
	glossaryPolicy    = retry.GlossaryPolicy
	chapterPolicy     = retry.ChapterPolicy
	descriptionPolicy = retry.DescriptionPolicy
	glossaryPacing    = glossary.DefaultPacing
)

// engine bundles the shared model-call stack of one run.
type engine struct {
	pool    *keypool.Pool
	invoker *backend.Invoker
	retry   *retry.Controller
	closers []func() error
}

func newEngine(cfg Config) (*engine, error) {
	pool, err := keypool.New(cfg.APIKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential pool: %w", err)
	}
	e := &engine{pool: pool, retry: retry.New(pool)}

	gen := cfg.Generator
	if gen == nil {
		switch cfg.Provider {
		case ProviderOpenAI:
			gen = openai.NewClient(cfg.BaseURL)
		default:
			gc := gemini.NewClient()
			e.closers = append(e.closers, gc.Close)
			gen = gc
		}
	}
	e.invoker, err = backend.NewInvoker(pool, gen, backend.Options{
		Spacing:     cfg.Spacing,
		CallTimeout: cfg.CallTimeout,
	})
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create invoker: %w", err)
	}
	logger.Info("Model backend ready", "provider", cfg.Provider, "credentials", pool.Len())
	return e, nil
}

func (e *engine) Close() error {
	var firstErr error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.closers = nil
	return firstErr
}

func (e *engine) builder(cfg Config) *glossary.Builder {
	b := glossary.NewBuilder(e.invoker, e.retry, cfg.ExtractModel)
	b.Policy = glossaryPolicy()
	b.Pacing = glossaryPacing
	b.OnBatch = cfg.OnGlossaryBatch
	return b
}

// openStore returns the configured glossary store and its closer.
func openStore(ctx context.Context, cfg Config) (store.Store, func() error, error) {
	noop := func() error { return nil }
	if cfg.Store != nil {
		return cfg.Store, noop, nil
	}
	if cfg.RedisURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		st, closeFn, err := store.OpenRedis(connectCtx, cfg.RedisURL, cfg.RedisPrefix, cfg.RedisTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return st, closeFn, nil
	}
	return store.NewFileStore(cfg.GlossaryDir), noop, nil
}
