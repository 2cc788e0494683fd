package backend

import (
	"context"
	"sync"

	"github.com/oukeidos/novtl/internal/keypool"
)

// Call records one request seen by MockGenerator.
type Call struct {
	Credential int
	Request    Request
}

// MockGenerator for testing. Respond decides the outcome of every call; when
// nil, Responses are replayed in order and the last one repeats.
type MockGenerator struct {
	Respond   func(call int, cred keypool.Credential, req Request) (string, error)
	Responses []MockResponse

	mu    sync.Mutex
	calls []Call
}

// MockResponse is one scripted outcome.
type MockResponse struct {
	Text string
	Err  error
}

func (m *MockGenerator) Generate(ctx context.Context, cred keypool.Credential, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Credential: cred.Index, Request: req})
	n := len(m.calls) - 1
	m.mu.Unlock()

	if m.Respond != nil {
		return m.Respond(n, cred, req)
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if n >= len(m.Responses) {
		n = len(m.Responses) - 1
	}
	return m.Responses[n].Text, m.Responses[n].Err
}

// Calls returns a copy of the recorded calls.
func (m *MockGenerator) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
