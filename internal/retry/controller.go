// Package retry runs one logical model operation with bounded attempts,
// exponential backoff and credential rotation on rate limits.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/keypool"
	"github.com/oukeidos/novtl/internal/logger"
)

// Controller is shared by every operation of a run so that all of them
// rotate the same credential pool.
type Controller struct {
	pool  *keypool.Pool
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Controller rotating pool. A nil pool behaves as a single key.
func New(pool *keypool.Pool) *Controller {
	return &Controller{pool: pool, sleep: sleepContext}
}

// Op is one attempt of an operation.
type Op[T any] func(ctx context.Context) (T, error)

func (c *Controller) poolSize() int {
	if c.pool == nil {
		return 1
	}
	return c.pool.Len()
}

func (c *Controller) cursor() int {
	if c.pool == nil {
		return 0
	}
	return c.pool.Current().Index
}

// Execute runs op under policy p.
//
// Rate limits rotate away from the credential the failed call used (read from
// the error, see keypool.CredentialIndex) and retry immediately. Once every
// credential in the pool has been rate limited in a row the result is
// credentials_exhausted, or, with WaitOnExhaustion, one backoff slot is spent
// and a new cycle starts on the next credential rather than the one that was
// limited last. Transient and validation failures back off and retry. Safety
// blocks and fatal errors return at once. Running out of attempts yields
// retries_exhausted wrapping the last failure.
func Execute[T any](ctx context.Context, c *Controller, p Policy, op Op[T]) (T, error) {
	var zero T
	p = p.normalized()
	delays := p.Delays()
	n := c.poolSize()

	attempt := 0
	limited := 0
	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		used := c.cursor()
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		if errors.Is(err, context.Canceled) {
			return zero, err
		}
		lastErr = err
		kind, _ := apperrors.KindOf(err)
		// Another worker may have rotated the pool between cursor() and the call.
		if idx, ok := keypool.CredentialIndex(err); ok {
			used = idx
		}

		if !apperrors.IsRetryable(err) {
			logger.Debug("Operation failed without retry", "operation", p.Name, "attempt", attempt+1, "kind", kind, "credential", used)
			return zero, err
		}

		if apperrors.IsRateLimit(err) {
			limited++
			if limited < n {
				next, _ := c.pool.RotateFrom(used)
				logger.Warn("Rate limited, rotating credential", "operation", p.Name, "credential", used, "next", next.Index)
				continue
			}
			if !p.WaitOnExhaustion {
				logger.Warn("All credentials rate limited", "operation", p.Name, "credentials", n)
				return zero, apperrors.CredentialsExhausted(fmt.Errorf("%s: %d credential(s) rate limited: %w", p.Name, n, err))
			}
		}

		if attempt+1 >= p.MaxAttempts {
			logger.Error("Operation failed after maximum retries", "operation", p.Name, "attempts", attempt+1, "kind", kind)
			return zero, apperrors.RetriesExhausted(fmt.Errorf("%s: %d attempt(s): %w", p.Name, attempt+1, lastErr))
		}
		delay := delays[attempt]
		attempt++
		logger.Warn("Retrying after backoff", "operation", p.Name, "attempt", attempt+1, "kind", kind, "delay", delay)
		if err := c.sleep(ctx, delay); err != nil {
			return zero, err
		}

		if limited >= n && c.pool != nil {
			// A new cycle starts on the credential that has waited longest.
			c.pool.RotateFrom(used)
		}
		limited = 0
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
