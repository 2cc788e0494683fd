package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/backend"
	"github.com/oukeidos/novtl/internal/httpclient"
	"github.com/oukeidos/novtl/internal/keypool"
)

// DefaultBaseURL is used when no custom endpoint is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// Client talks to any OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL string

	mu      sync.Mutex
	clients map[string]*goopenai.Client
}

// NewClient creates a backend for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		clients: make(map[string]*goopenai.Client),
	}
}

var _ backend.Generator = (*Client)(nil)

func (c *Client) clientFor(apiKey string) *goopenai.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[apiKey]; ok {
		return cl
	}
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = httpclient.GetDefaultClient()
	cl := goopenai.NewClientWithConfig(cfg)
	c.clients[apiKey] = cl
	return cl
}

// Generate sends a single user message and returns the assistant text.
func (c *Client) Generate(ctx context.Context, cred keypool.Credential, req backend.Request) (string, error) {
	resp, err := c.clientFor(cred.Key).CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	slog.Debug("OpenAI API Response", "usage_total", resp.Usage.TotalTokens, "response_id", resp.ID)

	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.KindValidation, "OpenAI response contained no choices.", nil)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonContentFilter {
		return "", apperrors.New(apperrors.KindSafetyBlocked, "OpenAI response was withheld by the content filter.", nil)
	}
	return choice.Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		code := strings.ToLower(fmt.Sprint(apiErr.Code))
		cause := fmt.Errorf("openai status=%d type=%s code=%s message=%s", apiErr.HTTPStatusCode, apiErr.Type, code, apiErr.Message)
		if code == "content_policy_violation" || code == "content_filter" {
			return apperrors.New(apperrors.KindSafetyBlocked, "OpenAI rejected the request (content policy).", cause)
		}
		if code == "insufficient_quota" {
			return apperrors.New(apperrors.KindRateLimit, "OpenAI quota exhausted.", cause)
		}
		return classifyStatus(apiErr.HTTPStatusCode, cause)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, fmt.Errorf("openai status=%d", reqErr.HTTPStatusCode))
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.New(apperrors.KindTransient, "OpenAI request timed out.", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.New(
			apperrors.KindTransient,
			"OpenAI request failed due to a temporary network error.",
			fmt.Errorf("request failed: %w", err),
		)
	}
	return apperrors.New(apperrors.KindFatal, "OpenAI request failed with an unrecognized error.", err)
}

func classifyStatus(statusCode int, cause error) error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return apperrors.New(apperrors.KindRateLimit, "OpenAI API rate limit exceeded (429).", cause)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.New(
			apperrors.KindAuth,
			fmt.Sprintf("OpenAI API authentication/authorization failed (%d): please verify your API key and permissions.", statusCode),
			cause,
		)
	case http.StatusBadRequest, http.StatusNotFound:
		return apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("OpenAI request rejected (%d).", statusCode), cause)
	default:
		if statusCode >= 500 {
			return apperrors.New(apperrors.KindTransient, fmt.Sprintf("OpenAI server error (%d): please try again later.", statusCode), cause)
		}
		return apperrors.New(apperrors.KindFatal, fmt.Sprintf("OpenAI API error (%d).", statusCode), cause)
	}
}
