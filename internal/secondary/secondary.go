// Package secondary wraps the free Google Translate endpoint used for titles
// and as the first stage of the safety fallback chain.
package secondary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bregydoc/gtranslate"
	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/chunker"
	"github.com/oukeidos/novtl/internal/logger"
	"golang.org/x/text/language"
)

// DefaultTimeout bounds a single chunk request.
const DefaultTimeout = 60 * time.Second

// Translator translates plain text between two languages.
type Translator interface {
	Translate(ctx context.Context, text string, source, target language.Tag) (string, error)
}

// Google is a Translator backed by github.com/bregydoc/gtranslate.
type Google struct {
	// MaxLength is the chunk limit in grapheme clusters.
	MaxLength int
	// Timeout bounds each chunk request.
	Timeout time.Duration
	// Tries is passed through to gtranslate.
	Tries int

	call func(text, from, to string, tries int) (string, error)
}

// NewGoogle returns a Google translator with default limits.
func NewGoogle() *Google {
	return &Google{
		MaxLength: chunker.DefaultMaxLength,
		Timeout:   DefaultTimeout,
		Tries:     2,
		call:      callGoogle,
	}
}

var _ Translator = (*Google)(nil)

func callGoogle(text, from, to string, tries int) (string, error) {
	return gtranslate.TranslateWithParams(text, gtranslate.TranslationParams{
		From:  from,
		To:    to,
		Tries: tries,
		Delay: time.Second,
	})
}

// Translate splits text into paragraph-aligned chunks under MaxLength,
// translates each one and rejoins them with the paragraph separator.
func (g *Google) Translate(ctx context.Context, text string, source, target language.Tag) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	from, to := Code(source), Code(target)
	chunks := chunker.SplitParagraphs(text, g.MaxLength)
	if len(chunks) > 1 {
		logger.Debug("Secondary translation split into chunks", "chunks", len(chunks))
	}
	out := make([]string, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			out[i] = chunk
			continue
		}
		translated, err := g.translateChunk(ctx, chunk, from, to)
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		out[i] = strings.TrimSpace(translated)
	}
	return chunker.JoinParagraphs(out), nil
}

type callResult struct {
	text string
	err  error
}

func (g *Google) translateChunk(ctx context.Context, chunk, from, to string) (string, error) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	call := g.call
	if call == nil {
		call = callGoogle
	}
	// gtranslate has no context support; abandon the call on timeout.
	done := make(chan callResult, 1)
	go func() {
		text, err := call(chunk, from, to, g.Tries)
		done <- callResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.New(apperrors.KindTransient, "Secondary translation timed out.", ctx.Err())
		}
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", apperrors.New(apperrors.KindTransient, "Secondary translation failed.", res.err)
		}
		if strings.TrimSpace(res.text) == "" {
			return "", apperrors.New(apperrors.KindValidation, "Secondary translation returned empty text.", nil)
		}
		return res.text, nil
	}
}

// Code maps a language tag to the code the Google endpoint expects.
// Chinese is resolved to zh-CN or zh-TW by script and region.
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	if base.String() != "zh" {
		return base.String()
	}
	script, _ := tag.Script()
	region, _ := tag.Region()
	if script.String() == "Hant" || region.String() == "TW" || region.String() == "HK" {
		return "zh-TW"
	}
	return "zh-CN"
}

// ParseLanguage parses a BCP 47 tag such as "zh-CN" or "en".
func ParseLanguage(s string) (language.Tag, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return language.Und, fmt.Errorf("invalid language %q: %w", s, err)
	}
	return tag, nil
}
