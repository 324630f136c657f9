package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// CompletionRequest is one call to the completion service.
type CompletionRequest struct {
	Model        string
	Prompt       string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}

// CompletionClient abstracts the completion service so tests can
// substitute fakes without process-wide state.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// OpenRouterClient calls chat models through the OpenRouter
// OpenAI-compatible endpoint.
type OpenRouterClient struct {
	client  *openai.Client
	timeout time.Duration
}

// NewOpenRouterClient creates a client against the given base URL.
func NewOpenRouterClient(apiKey, baseURL string, timeout time.Duration) (*OpenRouterClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenRouterClient{
		client:  openai.NewClientWithConfig(clientConfig),
		timeout: timeout,
	}, nil
}

// Complete sends a system+user message pair and returns the raw text of
// the first choice.
func (c *OpenRouterClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completion API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
