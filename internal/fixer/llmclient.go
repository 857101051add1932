// Package fixer implements the Code Fixer (C6): LLM-driven patch
// generation with robust response parsing and textual patch application.
package fixer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single completion request (§5 LLM timeout).
// Overridable from config (CODEHEALER_TIMEOUT_LLM).
var DefaultTimeout = 60 * time.Second

// LLMClient generates a completion for a (system, user) prompt pair.
// Injectable for tests.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// httpClient implements LLMClient against an OpenAI-compatible
// chat-completions endpoint over plain net/http.
type httpClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// ClientOption configures an httpClient.
type ClientOption func(*httpClient)

// WithHTTPClient overrides the underlying *http.Client (tests supply a
// fake RoundTripper).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *httpClient) { hc.httpClient = c }
}

// WithEndpoint overrides the default chat-completions endpoint.
func WithEndpoint(endpoint string) ClientOption {
	return func(hc *httpClient) { hc.endpoint = endpoint }
}

// NewHTTPClient builds an LLMClient. apiKey and model are required.
func NewHTTPClient(apiKey, model string, opts ...ClientOption) (LLMClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("fixer: API key cannot be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("fixer: model cannot be empty")
	}
	c := &httpClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: "https://api.openai.com/v1/chat/completions",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a system+user prompt pair and returns the first choice's
// message content.
func (c *httpClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("fixer: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("fixer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fixer: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("fixer: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fixer: LLM endpoint returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("fixer: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("fixer: LLM error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("fixer: empty choices in LLM response")
	}
	return parsed.Choices[0].Message.Content, nil
}

// MaxResponseBytes bounds how much of the HTTP response body is read.
const MaxResponseBytes = 4 << 20 // 4 MiB
