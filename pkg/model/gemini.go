package model

import (
	"context"
	"fmt"

	"github.com/harun/recall/pkg/thread"
	"google.golang.org/genai"
)

// GeminiCompleter implements Completer for Google Gemini
type GeminiCompleter struct {
	client *genai.Client
}

// NewGeminiCompleter creates a client for the Gemini API backend.
func NewGeminiCompleter(ctx context.Context, cfg Config) (*GeminiCompleter, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiCompleter{client: client}, nil
}

// Provider returns the provider name
func (c *GeminiCompleter) Provider() string {
	return ProviderGemini
}

// Complete calls GenerateContent with the whole transcript.
func (c *GeminiCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	system, contents := geminiContents(req.Messages)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != nil {
		config.SystemInstruction = system
	}

	response, err := c.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, err
	}

	content := response.Text()
	if content == "" {
		return nil, ErrEmptyResponse
	}

	usage := &Usage{}
	if response.UsageMetadata != nil {
		usage.InputTokens = int(response.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(response.UsageMetadata.CandidatesTokenCount)
	}

	return &Response{Content: content, Usage: usage}, nil
}

// geminiContents converts a transcript to Gemini contents. Assistant turns
// use the "model" role; the system prompt becomes a separate instruction.
func geminiContents(msgs []thread.Message) (*genai.Content, []*genai.Content) {
	system, conversation := splitSystem(msgs)

	contents := make([]*genai.Content, 0, len(conversation))
	for _, msg := range conversation {
		role := genai.Role(genai.RoleUser)
		if msg.Role == thread.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	var instruction *genai.Content
	if system != "" {
		instruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return instruction, contents
}
