// Package model wraps hosted chat-completion APIs behind a single Completer
// interface.
//
// Three providers are supported:
//   - gemini: Google Gemini through google.golang.org/genai (default)
//   - anthropic: Anthropic Messages API through anthropic-sdk-go
//   - openai: OpenAI Chat Completions through openai-go
//
// Completers are text-only. System messages in a Request are lifted into the
// provider's dedicated system field; user and assistant messages are sent in
// order. SDK retries are disabled, so a failed call surfaces immediately.
package model
