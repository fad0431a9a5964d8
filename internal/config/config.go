package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harun/recall/pkg/turn"
)

const (
	// DefaultSystemPrompt is prefixed to every model call.
	DefaultSystemPrompt = turn.DefaultSystemPrompt

	// DefaultThreadID is the thread the demo turns run on.
	DefaultThreadID = "vvk"
)

// Config represents the main recall configuration
type Config struct {
	Model        ModelConfig   `json:"model" mapstructure:"model"`
	Store        StoreConfig   `json:"store" mapstructure:"store"`
	SystemPrompt string        `json:"system_prompt" mapstructure:"system_prompt"`
	Logging      LoggingConfig `json:"logging" mapstructure:"logging"`
	DataDir      string        `json:"data_dir" mapstructure:"data_dir"`
}

// ModelConfig selects the completion provider and its sampling parameters
type ModelConfig struct {
	Provider    string  `json:"provider" mapstructure:"provider"` // gemini, anthropic, openai
	Name        string  `json:"name" mapstructure:"name"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
	APIKey      string  `json:"api_key" mapstructure:"api_key"`
	BaseURL     string  `json:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `json:"timeout" mapstructure:"timeout"` // seconds per turn, 0 disables
}

// StoreConfig selects where thread history lives
type StoreConfig struct {
	Backend string `json:"backend" mapstructure:"backend"` // memory, jsonl, sqlite
	Dir     string `json:"dir" mapstructure:"dir"`         // jsonl only
	Path    string `json:"path" mapstructure:"path"`       // sqlite only
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	AuditFile string `json:"audit_file,omitempty" mapstructure:"audit_file"` // JSONL turn audit, empty disables

	RedactPatterns []string `json:"redact_patterns,omitempty" mapstructure:"redact_patterns"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    "gemini",
			Name:        "gemini-2.0-flash-exp",
			Temperature: 0,
			MaxTokens:   1024,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		SystemPrompt: DefaultSystemPrompt,
		Logging: LoggingConfig{
			Level:     "warn",
			Pretty:    true,
			Redaction: true,
		},
	}
}

// TurnTimeout returns the per-turn deadline, zero when disabled.
func (m ModelConfig) TurnTimeout() time.Duration {
	if m.Timeout <= 0 {
		return 0
	}
	return time.Duration(m.Timeout) * time.Second
}

// String returns a JSON representation of the config with the API key masked
func (c *Config) String() string {
	masked := *c
	if masked.Model.APIKey != "" {
		masked.Model.APIKey = "***"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	v := NewValidator()

	if err := v.ValidateProvider(c.Model.Provider); err != nil {
		return err
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model name is required")
	}
	if err := v.ValidateTemperature(c.Model.Temperature, c.Model.Provider); err != nil {
		return err
	}
	if c.Model.MaxTokens < 0 {
		return fmt.Errorf("max tokens cannot be negative")
	}
	if c.Model.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.Model.APIKey != "" {
		if err := v.ValidateAPIKey(c.Model.APIKey, c.Model.Provider); err != nil {
			return err
		}
	}

	if err := v.ValidateBackend(c.Store.Backend); err != nil {
		return err
	}
	switch c.Store.Backend {
	case "jsonl":
		if c.Store.Dir == "" {
			return fmt.Errorf("store dir is required for the jsonl backend")
		}
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store path is required for the sqlite backend")
		}
	}

	if c.SystemPrompt == "" {
		return fmt.Errorf("system prompt cannot be empty")
	}

	if err := v.ValidateRedactPatterns(c.Logging.RedactPatterns); err != nil {
		return err
	}

	return v.ValidateLogLevel(c.Logging.Level)
}
