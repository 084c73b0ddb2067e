// Package openai implements llm.Completer on OpenAI-compatible chat
// completion endpoints through go-openai.
package openai

import (
	"context"
	"errors"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/docent/pkg/llm"
)

const (
	Name = "openai"

	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Config holds configuration for the OpenAI completer.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client sends each prompt as a single user message.
type Client struct {
	client *goopenai.Client
	model  string
}

// New creates an OpenAI completer. An API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai completer requires an API key")
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Complete returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: opts.MaxTokens,
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", llm.NewModelCallError(Name, c.model, err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.NewModelCallError(Name, c.model, errors.New("openai returned no choices"))
	}

	return resp.Choices[0].Message.Content, nil
}

var _ llm.Completer = (*Client)(nil)
