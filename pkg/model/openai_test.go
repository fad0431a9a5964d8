package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/harun/recall/pkg/thread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompleter_Complete(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Foggy."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 30, "completion_tokens": 2, "total_tokens": 32}
		}`))
	}))
	defer server.Close()

	c := NewOpenAICompleter(Config{APIKey: "sk-test", BaseURL: server.URL})
	resp, err := c.Complete(context.Background(), Request{
		Model: "gpt-4o-mini",
		Messages: []thread.Message{
			thread.SystemMessage("be brief"),
			thread.UserMessage("q1"),
			thread.AssistantMessage("a1"),
			thread.UserMessage("q2"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Foggy.", resp.Content)
	assert.Equal(t, 30, resp.Usage.InputTokens)
	assert.Equal(t, 2, resp.Usage.OutputTokens)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	assert.Equal(t, float64(0), captured["temperature"])

	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 4)
	roles := make([]string, len(messages))
	for i, m := range messages {
		roles[i] = m.(map[string]interface{})["role"].(string)
	}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
}

func TestOpenAICompleter_ErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	c := NewOpenAICompleter(Config{APIKey: "sk-test", BaseURL: server.URL})
	_, err := c.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []thread.Message{thread.UserMessage("hi")},
	})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenAICompleter_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	c := NewOpenAICompleter(Config{APIKey: "sk-test", BaseURL: server.URL})
	_, err := c.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []thread.Message{thread.UserMessage("hi")},
	})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
