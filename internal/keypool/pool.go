// Package keypool holds the ordered set of API keys used for one run and a
// round-robin cursor over them.
package keypool

import (
	"errors"
	"strings"
	"sync"
)

// ErrEmpty is returned when a pool is built without any usable key.
var ErrEmpty = errors.New("at least one API key is required")

// Credential is an API key together with its position in the rotation order.
type Credential struct {
	Index int
	Key   string
}

// Pool is safe for concurrent use. Membership never changes after New.
type Pool struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

// New builds a pool from keys, trimming blanks and dropping duplicates while
// preserving order.
func New(keys []string) (*Pool, error) {
	seen := make(map[string]bool, len(keys))
	var cleaned []string
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		cleaned = append(cleaned, k)
	}
	if len(cleaned) == 0 {
		return nil, ErrEmpty
	}
	return &Pool{keys: cleaned}, nil
}

// Len returns the number of credentials in the pool.
func (p *Pool) Len() int {
	return len(p.keys)
}

// Current returns the credential under the cursor.
func (p *Pool) Current() Credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Credential{Index: p.cursor, Key: p.keys[p.cursor]}
}

// Rotate advances the cursor to the next credential. It returns false for a
// single-key pool, where there is nothing to fail over to.
func (p *Pool) Rotate() bool {
	_, ok := p.RotateFrom(-1)
	return ok
}

// RotateFrom advances the cursor only if it still points at from, so that two
// callers reacting to the same rate-limited credential move it once. Passing a
// negative index rotates unconditionally. The returned credential is the one
// now under the cursor.
func (p *Pool) RotateFrom(from int) (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) < 2 {
		return Credential{Index: p.cursor, Key: p.keys[p.cursor]}, false
	}
	if from < 0 || from == p.cursor {
		p.cursor = (p.cursor + 1) % len(p.keys)
	}
	return Credential{Index: p.cursor, Key: p.keys[p.cursor]}, true
}

// UsedError tags a failed call with the index of the credential it was
// issued with. The key itself is never carried.
type UsedError struct {
	Index int
	Err   error
}

func (e *UsedError) Error() string { return e.Err.Error() }

func (e *UsedError) Unwrap() error { return e.Err }

// WithCredential wraps err with the index of cred. A nil err stays nil.
func WithCredential(err error, cred Credential) error {
	if err == nil {
		return nil
	}
	return &UsedError{Index: cred.Index, Err: err}
}

// CredentialIndex returns the credential index recorded in err's chain.
func CredentialIndex(err error) (int, bool) {
	var e *UsedError
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Index, true
}
