package gemini

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/backend"
	"github.com/oukeidos/novtl/internal/keypool"
	"google.golang.org/api/option"
)

// Client issues Gemini calls. It keeps one genai client per credential so that
// rotating keys does not rebuild connections.
type Client struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
	newFn   func(ctx context.Context, apiKey string) (*genai.Client, error)
}

// NewClient creates a Gemini backend. Underlying clients are created lazily.
func NewClient() *Client {
	return &Client{
		clients: make(map[string]*genai.Client),
		newFn: func(ctx context.Context, apiKey string) (*genai.Client, error) {
			// option.WithHTTPClient interferes with the API key header injection,
			// so timeouts are enforced by the caller's context instead.
			return genai.NewClient(ctx, option.WithAPIKey(apiKey))
		},
	}
}

// Ensure Client implements backend.Generator
var _ backend.Generator = (*Client)(nil)

// Close closes every underlying genai client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for key, cl := range c.clients {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.clients, key)
	}
	return firstErr
}

func (c *Client) clientFor(ctx context.Context, cred keypool.Credential) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[cred.Key]; ok {
		return cl, nil
	}
	// The genai client outlives this call, so it must not inherit its deadline.
	cl, err := c.newFn(context.WithoutCancel(ctx), cred.Key)
	if err != nil {
		return nil, apperrors.New(apperrors.KindAuth, fmt.Sprintf("Failed to create Gemini client for key #%d.", cred.Index), err)
	}
	c.clients[cred.Key] = cl
	return cl, nil
}

// Generate sends a single prompt and returns the response text.
func (c *Client) Generate(ctx context.Context, cred keypool.Credential, req backend.Request) (string, error) {
	cl, err := c.clientFor(ctx, cred)
	if err != nil {
		return "", err
	}
	model := cl.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	text, err := extractResponseText(resp)
	if err != nil {
		if blockedResponse(resp) {
			return "", apperrors.SafetyBlocked(err)
		}
		return "", apperrors.Validation(err)
	}
	return text, nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined string
		for _, part := range candidate.Content.Parts {
			text, ok := part.(genai.Text)
			if !ok {
				continue
			}
			combined += string(text)
		}
		if combined != "" {
			return combined, nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}

// blockedResponse reports an empty response that was cut by the safety filter
// without genai surfacing a BlockedError.
func blockedResponse(resp *genai.GenerateContentResponse) bool {
	if resp == nil {
		return false
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return true
	}
	for _, candidate := range resp.Candidates {
		if candidate.FinishReason == genai.FinishReasonSafety {
			return true
		}
	}
	return false
}
