// Package translator is the per-chapter entry point. It composes the glossary,
// the retry controller and the safety fallback chain.
package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/fallback"
	"github.com/oukeidos/novtl/internal/glossary"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/retry"
)

// Method tags how a Result was produced.
type Method string

const (
	MethodDirect           Method = "direct"
	MethodCensoredFallback Method = "censored-fallback"
	MethodSecondaryOnly    Method = "secondary-only"
	MethodFailed           Method = "failed"
)

// Result is the outcome of translating one chapter. Text is empty when
// Method is MethodFailed; the source is never passed off as a translation.
type Result struct {
	Text   string
	Method Method
	Err    error
}

const (
	DefaultTemperature = 0.3
	DefaultExcerptSize = 50
	minDescriptionLen  = 10
)

// Invoker issues a single model call.
type Invoker interface {
	Invoke(ctx context.Context, model, prompt string, temperature float32) (string, error)
}

// Options configures a Translator. Zero values select defaults; a nil
// Temperature means DefaultTemperature, so an explicit 0 is kept.
type Options struct {
	Model             string
	Temperature       *float32
	ExcerptSize       int
	ChapterPolicy     retry.Policy
	DescriptionPolicy retry.Policy
}

// Translator translates chapters and descriptions. It is safe for concurrent
// use.
type Translator struct {
	invoker Invoker
	retry   *retry.Controller
	chain   *fallback.Chain
	opts    Options
	temp    float32
}

// New creates a Translator. chain may be nil, in which case a safety block
// ends in a failed result.
func New(invoker Invoker, ctrl *retry.Controller, chain *fallback.Chain, opts Options) (*Translator, error) {
	if invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}
	if ctrl == nil {
		return nil, fmt.Errorf("retry controller is required")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	temp := float32(DefaultTemperature)
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	if opts.ExcerptSize <= 0 {
		opts.ExcerptSize = DefaultExcerptSize
	}
	if opts.ChapterPolicy.MaxAttempts == 0 {
		opts.ChapterPolicy = retry.ChapterPolicy()
	}
	if opts.DescriptionPolicy.MaxAttempts == 0 {
		opts.DescriptionPolicy = retry.DescriptionPolicy()
	}
	if chain == nil {
		chain = &fallback.Chain{}
	}
	return &Translator{invoker: invoker, retry: ctrl, chain: chain, opts: opts, temp: temp}, nil
}

func (t *Translator) call(ctx context.Context, policy retry.Policy, prompt string) (string, error) {
	return retry.Execute(ctx, t.retry, policy, func(ctx context.Context) (string, error) {
		return t.invoker.Invoke(ctx, t.opts.Model, prompt, t.temp)
	})
}

// Translate produces the English text of one chapter.
func (t *Translator) Translate(ctx context.Context, content string, chapterNumber int, g glossary.Glossary) Result {
	if strings.TrimSpace(content) == "" {
		return Result{Method: MethodFailed, Err: apperrors.New(apperrors.KindValidation, "Chapter content is empty.", nil)}
	}
	entries := g.Excerpt(t.opts.ExcerptSize)

	text, err := t.call(ctx, t.opts.ChapterPolicy, ChapterPrompt(content, chapterNumber, entries))
	if err == nil {
		logger.Info("Chapter translated", "chapter", chapterNumber, "method", MethodDirect)
		return Result{Text: text, Method: MethodDirect}
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return Result{Method: MethodFailed, Err: err}
	}
	if !apperrors.IsSafetyBlocked(err) {
		logger.Error("Chapter translation failed", "chapter", chapterNumber, "error", apperrors.PublicMessage(err))
		return Result{Method: MethodFailed, Err: err}
	}

	logger.Warn("Chapter blocked by safety filter, entering fallback", "chapter", chapterNumber)
	chain := *t.chain
	chain.Polisher = fallback.PolishFunc(func(ctx context.Context, censored string) (string, error) {
		return t.call(ctx, t.opts.ChapterPolicy, PolishPrompt(censored, entries))
	})
	out := chain.Run(ctx, chapterNumber, content)
	switch out.State {
	case fallback.StateDoneCensored:
		return Result{Text: out.Text, Method: MethodCensoredFallback}
	case fallback.StateDoneSecondaryOnly:
		return Result{Text: out.Text, Method: MethodSecondaryOnly, Err: out.Err}
	default:
		if out.Err == nil {
			out.Err = err
		}
		return Result{Method: MethodFailed, Err: out.Err}
	}
}
