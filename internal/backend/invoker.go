package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/keypool"
	"github.com/oukeidos/novtl/internal/logger"
	"golang.org/x/time/rate"
)

const (
	// DefaultSpacing keeps a single key under roughly 15 requests per minute.
	DefaultSpacing = 4 * time.Second
	// DefaultCallTimeout bounds one model call.
	DefaultCallTimeout = 5 * time.Minute
)

// Request is one model call. It is built fresh per attempt.
type Request struct {
	Model       string
	Prompt      string
	Temperature float32
}

// Generator issues a single request with a specific credential and returns a
// classified error (apperrors kinds) on failure. Implementations must not retry.
type Generator interface {
	Generate(ctx context.Context, cred keypool.Credential, req Request) (string, error)
}

// Options configures an Invoker.
type Options struct {
	// Spacing is the minimum gap between any two calls, shared by all callers.
	// Zero disables pacing.
	Spacing time.Duration
	// CallTimeout bounds each call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
}

// Invoker is the single entry point for model calls. It picks the current
// credential from the pool, serializes callers through a shared pacer and
// normalizes outcomes into apperrors kinds.
type Invoker struct {
	pool    *keypool.Pool
	gen     Generator
	limiter *rate.Limiter
	timeout time.Duration
}

// NewInvoker creates an Invoker over pool and gen.
func NewInvoker(pool *keypool.Pool, gen Generator, opts Options) (*Invoker, error) {
	if pool == nil {
		return nil, fmt.Errorf("credential pool is required")
	}
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if opts.Spacing < 0 {
		return nil, fmt.Errorf("spacing must be 0 or greater, got %s", opts.Spacing)
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	limit := rate.Inf
	if opts.Spacing > 0 {
		limit = rate.Every(opts.Spacing)
	}
	return &Invoker{
		pool:    pool,
		gen:     gen,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
	}, nil
}

// Pool returns the credential pool the invoker draws from.
func (in *Invoker) Pool() *keypool.Pool {
	return in.pool
}

// Invoke performs one call. It never retries. A failed call carries the
// index of the credential it used, see keypool.CredentialIndex.
func (in *Invoker) Invoke(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	if err := in.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", apperrors.Transient(fmt.Errorf("pacer wait failed: %w", err))
	}

	cred := in.pool.Current()
	callCtx, cancel := context.WithTimeout(ctx, in.timeout)
	defer cancel()

	logger.Debug("Invoking model", "model", model, "credential", cred.Index, "temperature", temperature)
	text, err := in.gen.Generate(callCtx, cred, Request{
		Model:       model,
		Prompt:      prompt,
		Temperature: temperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", keypool.WithCredential(classify(err), cred)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", keypool.WithCredential(apperrors.New(apperrors.KindValidation, "Model returned an empty response.", nil), cred)
	}
	return text, nil
}

func classify(err error) error {
	if _, ok := apperrors.KindOf(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.New(apperrors.KindTransient, "Model call timed out.", err)
	}
	return apperrors.New(apperrors.KindFatal, "Model call failed with an unrecognized error.", err)
}
