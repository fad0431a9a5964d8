package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		key      string
		provider string
		wantErr  bool
	}{
		{"valid anthropic key", "sk-ant-test123", "anthropic", false},
		{"invalid anthropic key", "invalid-key", "anthropic", true},
		{"valid openai key", "sk-test123", "openai", false},
		{"invalid openai key", "invalid-key", "openai", true},
		{"valid gemini key", "AIzaSyTest", "gemini", false},
		{"invalid gemini key", "sk-test123", "gemini", true},
		{"empty key", "", "gemini", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAPIKey(tt.key, tt.provider)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProvider(t *testing.T) {
	v := NewValidator()

	for _, p := range []string{"gemini", "anthropic", "openai"} {
		assert.NoError(t, v.ValidateProvider(p), p)
	}
	assert.Error(t, v.ValidateProvider("ollama"))
	assert.Error(t, v.ValidateProvider(""))
}

func TestValidateTemperature(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateTemperature(0, "gemini"))
	assert.NoError(t, v.ValidateTemperature(1.5, "gemini"))
	assert.NoError(t, v.ValidateTemperature(2, "openai"))
	assert.Error(t, v.ValidateTemperature(-0.1, "gemini"))
	assert.Error(t, v.ValidateTemperature(2.1, "openai"))

	assert.NoError(t, v.ValidateTemperature(1, "anthropic"))
	assert.Error(t, v.ValidateTemperature(1.5, "anthropic"))
}

func TestValidateRedactPatterns(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateRedactPatterns(nil))
	assert.NoError(t, v.ValidateRedactPatterns([]string{`acct-[0-9]+`}))
	assert.Error(t, v.ValidateRedactPatterns([]string{`[oops`}))
}

func TestValidateBackend(t *testing.T) {
	v := NewValidator()

	for _, b := range []string{"memory", "jsonl", "sqlite"} {
		assert.NoError(t, v.ValidateBackend(b), b)
	}
	assert.Error(t, v.ValidateBackend(""))
	assert.Error(t, v.ValidateBackend("postgres"))
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateLogLevel("debug"))
	assert.Error(t, v.ValidateLogLevel("trace"))
}
