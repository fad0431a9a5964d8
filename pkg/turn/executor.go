package turn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harun/recall/internal/observability"
	"github.com/harun/recall/internal/tracing"
	"github.com/harun/recall/pkg/model"
	"github.com/harun/recall/pkg/thread"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultSystemPrompt is used when Config.SystemPrompt is empty.
const DefaultSystemPrompt = "You are a senior software engineer who speaks concisely, up to 10 words."

// ErrEmptyPrompt is returned by Run for blank user text.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// Executor runs turns against a thread store and a completer
type Executor struct {
	store        thread.Store
	completer    model.Completer
	model        string
	temperature  float64
	maxTokens    int
	systemPrompt string
	logger       zerolog.Logger
	lanes        *lanes
}

// Config holds executor configuration
type Config struct {
	Store        thread.Store
	Completer    model.Completer
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
	Logger       zerolog.Logger
}

// New creates a new turn executor
func New(cfg Config) (*Executor, error) {
	observability.EnsureRegistered()

	if cfg.Store == nil {
		return nil, fmt.Errorf("thread store is required")
	}
	if cfg.Completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if cfg.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	return &Executor{
		store:        cfg.Store,
		completer:    cfg.Completer,
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: systemPrompt,
		logger:       cfg.Logger,
		lanes:        newLanes(),
	}, nil
}

// Run executes one turn on threadID and returns the assistant's reply.
func (e *Executor) Run(ctx context.Context, threadID, userText string) (reply string, err error) {
	if strings.TrimSpace(userText) == "" {
		return "", ErrEmptyPrompt
	}
	if err := thread.ValidateThreadID(threadID); err != nil {
		return "", err
	}

	provider := e.completer.Provider()
	ctx = tracing.NewTurnContext(ctx, threadID)
	ctx, span := tracing.StartSpan(ctx, "recall.turn", "turn.run",
		attribute.String("thread_id", threadID),
		attribute.String("provider", provider),
		attribute.String("model", e.model),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, e.logger)

	start := time.Now()
	var usage *model.Usage
	defer func() {
		duration := time.Since(start)
		observability.RecordTurn(provider, duration, err == nil)
		observability.RecordTurnAudit(ctx, threadID, provider, err, map[string]interface{}{
			"model":       e.model,
			"duration_ms": duration.Milliseconds(),
			"usage":       usage,
		})
		if err != nil {
			tracing.FailSpan(span, err)
		}
	}()

	release, err := e.lanes.acquire(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("waiting for thread: %w", err)
	}
	defer release()

	history, err := e.store.Load(ctx, threadID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load thread history")
		return "", fmt.Errorf("failed to load history: %w", err)
	}

	userMsg := thread.UserMessage(userText)
	prompt := e.buildPrompt(history, userMsg)

	logger.Debug().
		Int("history", len(history)).
		Int("prompt_messages", len(prompt)).
		Msg("Calling model")

	callStart := time.Now()
	resp, err := e.completer.Complete(ctx, model.Request{
		Model:       e.model,
		Messages:    prompt,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err == nil && (resp == nil || resp.Content == "") {
		err = model.ErrEmptyResponse
	}
	if err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(callStart)).Msg("Model call failed")
		return "", fmt.Errorf("model call failed: %w", err)
	}

	usage = resp.Usage
	inputTokens, outputTokens := 0, 0
	if usage != nil {
		inputTokens, outputTokens = usage.InputTokens, usage.OutputTokens
	}
	observability.RecordModelCall(provider, time.Since(callStart), inputTokens, outputTokens)

	if err := e.store.Append(ctx, threadID, userMsg, thread.AssistantMessage(resp.Content)); err != nil {
		logger.Error().Err(err).Msg("Failed to persist turn")
		return "", fmt.Errorf("failed to save turn: %w", err)
	}

	logger.Info().
		Int("input_tokens", inputTokens).
		Int("output_tokens", outputTokens).
		Dur("duration", time.Since(start)).
		Msg("Turn completed")

	return resp.Content, nil
}

// History returns the stored transcript of threadID.
func (e *Executor) History(ctx context.Context, threadID string) ([]thread.Message, error) {
	return e.store.Load(ctx, threadID)
}

// buildPrompt lays out system prompt, history and the new user message.
func (e *Executor) buildPrompt(history []thread.Message, user thread.Message) []thread.Message {
	prompt := make([]thread.Message, 0, len(history)+2)
	prompt = append(prompt, thread.SystemMessage(e.systemPrompt))
	prompt = append(prompt, history...)
	prompt = append(prompt, user)
	return prompt
}
