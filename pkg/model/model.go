package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harun/recall/pkg/thread"
)

var (
	// ErrEmptyResponse is returned when the provider answers without text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrUnsupportedProvider is returned by New for unknown provider names.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrMissingAPIKey is returned by New when no API key is configured.
	ErrMissingAPIKey = errors.New("missing API key")
)

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// DefaultMaxTokens is used when a Request leaves MaxTokens unset and the
// provider requires a limit.
const DefaultMaxTokens = 1024

// Completer produces one assistant reply for a prompt.
type Completer interface {
	// Complete sends the prompt and returns the reply.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Provider returns the provider name
	Provider() string
}

// Request contains the parameters for one completion.
type Request struct {
	Model       string
	Messages    []thread.Message
	Temperature float64
	MaxTokens   int
}

// Response contains the reply text and token usage.
type Response struct {
	Content string
	Usage   *Usage
}

// Usage tracks token usage of a single call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Config selects and authenticates a provider.
type Config struct {
	Provider string
	APIKey   string
	// BaseURL overrides the provider endpoint; empty uses the SDK default.
	BaseURL string
}

// New creates the Completer for cfg.Provider.
func New(ctx context.Context, cfg Config) (Completer, error) {
	switch cfg.Provider {
	case ProviderGemini, ProviderAnthropic, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for provider %s", ErrMissingAPIKey, cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicCompleter(cfg), nil
	case ProviderOpenAI:
		return NewOpenAICompleter(cfg), nil
	default:
		return NewGeminiCompleter(ctx, cfg)
	}
}

// splitSystem separates system messages from the conversation.
// Multiple system messages are joined with blank lines.
func splitSystem(msgs []thread.Message) (string, []thread.Message) {
	var system []string
	rest := make([]thread.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == thread.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
