package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/familyhub/core/internal/infrastructure/config"
	"github.com/familyhub/core/internal/ports"
)

// ErrEmptyResponse is returned when the model answers without content
var ErrEmptyResponse = errors.New("empty chat completion")

// ChatClient implements ports.ChatCompleter against the OpenAI chat API.
// Requests are sent once; failures are reported to the caller, not retried.
type ChatClient struct {
	client  openai.Client
	model   string
	enabled bool
}

var _ ports.ChatCompleter = (*ChatClient)(nil)

// NewChatClient builds a client from configuration. With no API key the
// client is still usable and every call returns ports.ErrChatUnavailable.
func NewChatClient(cfg config.AIConfig) (*ChatClient, error) {
	if !cfg.Enabled() {
		return &ChatClient{model: cfg.Model}, nil
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Proxy != "" {
		var err error
		httpClient, err = newSocksClient(cfg.Proxy, cfg.Timeout)
		if err != nil {
			return nil, err
		}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &ChatClient{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		enabled: true,
	}, nil
}

// Enabled reports whether a credential is configured
func (c *ChatClient) Enabled() bool {
	return c != nil && c.enabled
}

// CompleteJSON sends the prompt pair and returns the raw JSON object text
func (c *ChatClient) CompleteJSON(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if !c.Enabled() {
		return "", ports.ErrChatUnavailable
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMessage),
		},
		Model: openai.ChatModel(c.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response: %w", ErrEmptyResponse)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyResponse
	}

	return content, nil
}
