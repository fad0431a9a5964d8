package model

import (
	"context"

	"github.com/harun/recall/pkg/thread"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAICompleter implements Completer for OpenAI
type OpenAICompleter struct {
	client openai.Client
}

// NewOpenAICompleter creates a new OpenAI completer
func NewOpenAICompleter(cfg Config) *OpenAICompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAICompleter{
		client: openai.NewClient(opts...),
	}
}

// Provider returns the provider name
func (c *OpenAICompleter) Provider() string {
	return ProviderOpenAI
}

// Complete makes an API call to OpenAI
func (c *OpenAICompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	response, err := c.client.Chat.Completions.New(ctx, openAIParams(req))
	if err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Content: response.Choices[0].Message.Content,
		Usage: &Usage{
			InputTokens:  int(response.Usage.PromptTokens),
			OutputTokens: int(response.Usage.CompletionTokens),
		},
	}, nil
}

func openAIParams(req Request) openai.ChatCompletionNewParams {
	system, conversation := splitSystem(req.Messages)

	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, msg := range conversation {
		switch msg.Role {
		case thread.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case thread.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	return params
}
