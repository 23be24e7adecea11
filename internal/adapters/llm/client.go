// Package llm is a text-in/text-out client for OpenAI-compatible chat
// completion endpoints. It implements prompt.Completer.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/clutch/internal/domain/prompt"
	"github.com/okian/clutch/pkg/logger"
)

// Provider base URLs. "custom" has none and needs WithBaseURL.
var providerBaseURLs = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"ollama":     "http://localhost:11434/v1",
	"lmstudio":   "http://localhost:1234/v1",
	"custom":     "",
}

const maxErrorBody = 512

// Client calls POST {base}/chat/completions. It never retries.
type Client struct {
	provider    string
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	http        *http.Client
	log         logger.Logger
}

var _ prompt.Completer = (*Client)(nil)

// New creates a client for provider, applying its default base URL.
func New(provider string, opts ...Option) (*Client, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = "openai"
	}
	base, ok := providerBaseURLs[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	c := &Client{
		provider: provider,
		baseURL:  base,
		model:    "gpt-4o-mini",
		http:     &http.Client{Timeout: 60 * time.Second},
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: provider %q needs a base url", ErrUnknownProvider, provider)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends p as a system and user message and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	body := chatRequest{Model: c.model, Temperature: c.temperature}
	if p.System != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: p.System})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: p.User})
	if p.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", ErrServiceError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrServiceError, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %w", ErrServiceError, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrServiceError, err)
	}
	c.log.Debug(ctx, "llm completion",
		logger.String("provider", c.provider),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrServiceError, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrServiceError, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrServiceError)
	}
	return out.Choices[0].Message.Content, nil
}
