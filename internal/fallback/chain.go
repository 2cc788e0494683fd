// Package fallback recovers a chapter whose direct translation was refused by
// the primary backend's content filter.
//
// The chain is a small state machine:
//
//	DIRECT_BLOCKED -> SECONDARY_TRANSLATE -> CENSOR -> POLISH -> DONE_CENSORED
//	                        |                             |
//	                        v                             v
//	                      FAILED                  DONE_SECONDARY_ONLY
//
// Without a secondary translator DIRECT_BLOCKED goes straight to FAILED.
package fallback

import (
	"context"
	"errors"
	"strings"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/censor"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/secondary"
	"golang.org/x/text/language"
)

type State string

const (
	StateDirectBlocked      State = "DIRECT_BLOCKED"
	StateSecondaryTranslate State = "SECONDARY_TRANSLATE"
	StateCensor             State = "CENSOR"
	StatePolish             State = "POLISH"
	StateDoneCensored       State = "DONE_CENSORED"
	StateDoneSecondaryOnly  State = "DONE_SECONDARY_ONLY"
	StateFailed             State = "FAILED"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDoneCensored || s == StateDoneSecondaryOnly || s == StateFailed
}

// ErrNoSecondary is the failure cause when no secondary translator is set.
var ErrNoSecondary = errors.New("no secondary translator configured")

// Polisher resubmits censored English text to the primary backend.
type Polisher interface {
	Polish(ctx context.Context, text string) (string, error)
}

// PolishFunc adapts a function to Polisher.
type PolishFunc func(ctx context.Context, text string) (string, error)

func (f PolishFunc) Polish(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Outcome is the final state of one run of the chain.
type Outcome struct {
	State State
	// Text is the usable translation; empty when State is FAILED.
	Text string
	// Secondary is the uncensored secondary translation, if one was produced.
	Secondary    string
	Replacements int
	Err          error
	Path         []State
}

// FailedEvent is passed to Chain.OnFailed.
type FailedEvent struct {
	Chapter int
	// From is the state that failed.
	From State
	Err  error
}

// Chain holds the collaborators of the fallback. It is safe for concurrent
// use as long as its collaborators are.
type Chain struct {
	Secondary secondary.Translator
	Censor    *censor.Filter
	Polisher  Polisher
	Source    language.Tag
	Target    language.Tag
	// OnFailed is called whenever the chain ends in FAILED. It is the hook
	// for any further recovery tier such as a manual review queue.
	OnFailed func(FailedEvent)
}

// Run drives the chain for one chapter whose direct translation was blocked.
func (c *Chain) Run(ctx context.Context, chapter int, source string) Outcome {
	r := &run{chain: c, chapter: chapter, out: Outcome{State: StateDirectBlocked}}
	r.out.Path = append(r.out.Path, StateDirectBlocked)

	for !r.out.State.Terminal() {
		if err := ctx.Err(); err != nil {
			r.fail(err)
			break
		}
		switch r.out.State {
		case StateDirectBlocked:
			if c.Secondary == nil {
				r.fail(ErrNoSecondary)
				continue
			}
			r.to(StateSecondaryTranslate)
		case StateSecondaryTranslate:
			text, err := c.Secondary.Translate(ctx, source, c.sourceTag(), c.targetTag())
			if err == nil && strings.TrimSpace(text) == "" {
				err = apperrors.New(apperrors.KindValidation, "Secondary translation was empty.", nil)
			}
			if err != nil {
				r.fail(err)
				continue
			}
			r.out.Secondary = text
			r.to(StateCensor)
		case StateCensor:
			filter := c.Censor
			if filter == nil {
				filter = censor.Default()
			}
			r.out.Text, r.out.Replacements = filter.Apply(r.out.Secondary)
			r.to(StatePolish)
		case StatePolish:
			if c.Polisher == nil {
				r.degrade(errors.New("no polisher configured"))
				continue
			}
			polished, err := c.Polisher.Polish(ctx, r.out.Text)
			if err == nil && strings.TrimSpace(polished) == "" {
				err = apperrors.New(apperrors.KindValidation, "Polished text was empty.", nil)
			}
			if err != nil {
				if ctx.Err() != nil {
					r.fail(ctx.Err())
					continue
				}
				r.degrade(err)
				continue
			}
			r.out.Text = strings.TrimSpace(polished)
			r.to(StateDoneCensored)
		}
	}

	logger.Info("Safety fallback finished", "chapter", chapter, "state", r.out.State, "replacements", r.out.Replacements)
	return r.out
}

func (c *Chain) sourceTag() language.Tag {
	if c.Source == language.Und {
		return language.SimplifiedChinese
	}
	return c.Source
}

func (c *Chain) targetTag() language.Tag {
	if c.Target == language.Und {
		return language.English
	}
	return c.Target
}

type run struct {
	chain   *Chain
	chapter int
	out     Outcome
}

func (r *run) to(s State) {
	logger.Debug("Safety fallback transition", "chapter", r.chapter, "from", r.out.State, "to", s)
	r.out.State = s
	r.out.Path = append(r.out.Path, s)
}

func (r *run) fail(err error) {
	from := r.out.State
	logger.Error("Safety fallback failed", "chapter", r.chapter, "state", from, "error", apperrors.PublicMessage(err))
	r.out.Text = ""
	r.out.Err = err
	r.to(StateFailed)
	if r.chain.OnFailed != nil {
		r.chain.OnFailed(FailedEvent{Chapter: r.chapter, From: from, Err: err})
	}
}

// degrade ends the chain with the uncensored secondary translation.
func (r *run) degrade(err error) {
	logger.Warn("Polish failed, keeping secondary translation", "chapter", r.chapter, "error", apperrors.PublicMessage(err))
	r.out.Text = r.out.Secondary
	r.out.Err = err
	r.to(StateDoneSecondaryOnly)
}
