package model

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/harun/recall/pkg/thread"
)

// AnthropicCompleter implements Completer for Anthropic Claude
type AnthropicCompleter struct {
	client anthropic.Client
}

// NewAnthropicCompleter creates a new Anthropic completer
func NewAnthropicCompleter(cfg Config) *AnthropicCompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicCompleter{
		client: anthropic.NewClient(opts...),
	}
}

// Provider returns the provider name
func (c *AnthropicCompleter) Provider() string {
	return ProviderAnthropic
}

// Complete makes an API call to Anthropic Claude
func (c *AnthropicCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	params := anthropicParams(req)

	response, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	content := ""
	for _, block := range response.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += b.Text
		}
	}
	if content == "" {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Content: content,
		Usage: &Usage{
			InputTokens:  int(response.Usage.InputTokens),
			OutputTokens: int(response.Usage.OutputTokens),
		},
	}, nil
}

func anthropicParams(req Request) anthropic.MessageNewParams {
	system, conversation := splitSystem(req.Messages)

	messages := make([]anthropic.MessageParam, 0, len(conversation))
	for _, msg := range conversation {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == thread.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		Messages:    messages,
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}
