package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is the per-operation retry budget. The decision logic is the same
// for every operation; only the numbers differ.
type Policy struct {
	// Name labels log lines.
	Name string
	// MaxAttempts counts backoff-consuming attempts. Rotations onto a fresh
	// credential after a rate limit are free.
	MaxAttempts int
	// Initial is the first backoff delay; each next delay doubles up to Max.
	Initial time.Duration
	Max     time.Duration
	// WaitOnExhaustion makes a full cycle of rate-limited credentials consume
	// a backoff slot and start over instead of failing with
	// credentials_exhausted.
	WaitOnExhaustion bool
}

// DescriptionPolicy: 3 attempts, 1s, 2s.
func DescriptionPolicy() Policy {
	return Policy{Name: "description", MaxAttempts: 3, Initial: time.Second, Max: 4 * time.Second}
}

// ChapterPolicy: 3 attempts with a short exponential schedule.
func ChapterPolicy() Policy {
	return Policy{Name: "chapter", MaxAttempts: 3, Initial: 2 * time.Second, Max: 30 * time.Second}
}

// GlossaryPolicy waits minutes between attempts (60s, 120s, 240s, 480s) and
// keeps waiting when every key is rate limited.
func GlossaryPolicy() Policy {
	return Policy{
		Name:             "glossary",
		MaxAttempts:      5,
		Initial:          60 * time.Second,
		Max:              8 * time.Minute,
		WaitOnExhaustion: true,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Initial < 0 {
		p.Initial = 0
	}
	if p.Max < p.Initial {
		p.Max = p.Initial
	}
	return p
}

func (p Policy) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.Max
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Delays returns the waits between consecutive attempts, MaxAttempts-1 long.
func (p Policy) Delays() []time.Duration {
	p = p.normalized()
	b := p.schedule()
	out := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := 1; i < p.MaxAttempts; i++ {
		d := b.NextBackOff()
		if d == backoff.Stop || d > p.Max {
			d = p.Max
		}
		out = append(out, d)
	}
	return out
}
