package textgen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vestnik-hq/vestnik-content-engine/pkg/httpclient"
)

// OpenAIClient implements Generator against an OpenAI-compatible
// chat-completions endpoint.
type OpenAIClient struct {
	endpoint string
	model    string
	apiKey   string
	client   *resty.Client
}

var _ Generator = (*OpenAIClient)(nil)

// OpenAIConfig holds the connection settings for the rewrite service.
type OpenAIConfig struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("rewrite endpoint is empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("rewrite model is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		client:   httpclient.NewRestyHTTPClient(timeout),
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate posts the prompt as a single user message and returns the
// trimmed completion text.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("openai client is nil")
	}

	var parsed chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			MaxTokens:   2000,
			Temperature: 0.7,
		}).
		SetResult(&parsed).
		Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("text generation request: %w", err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return "", fmt.Errorf("status %d: %w", resp.StatusCode(), ErrRateLimited)
	}
	if resp.IsError() {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return "", fmt.Errorf("text generation status %d: %s", resp.StatusCode(), snippet)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("text generation error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("text generation returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
