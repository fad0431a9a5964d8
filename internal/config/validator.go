package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator validates individual configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

var (
	validProviders = []string{"gemini", "anthropic", "openai"}
	validBackends  = []string{"memory", "jsonl", "sqlite"}
	validLevels    = []string{"debug", "info", "warn", "error"}
)

// ValidateProvider validates a provider name
func (v *Validator) ValidateProvider(provider string) error {
	if provider == "" {
		return fmt.Errorf("model provider is required")
	}
	if !oneOf(provider, validProviders) {
		return fmt.Errorf("invalid provider %s (must be: %s)", provider, strings.Join(validProviders, ", "))
	}
	return nil
}

// ValidateAPIKey validates an API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	case "gemini":
		if !strings.HasPrefix(key, "AIza") {
			return fmt.Errorf("invalid Gemini API key format (should start with AIza)")
		}
	}

	return nil
}

// ValidateTemperature validates temperature against the provider's accepted range.
func (v *Validator) ValidateTemperature(temp float64, provider string) error {
	upper := 2.0
	if provider == "anthropic" {
		upper = 1.0
	}
	if temp < 0 || temp > upper {
		return fmt.Errorf("temperature must be between 0 and %g for %s, got %g", upper, provider, temp)
	}
	return nil
}

// ValidateRedactPatterns checks that every extra redaction pattern compiles.
func (v *Validator) ValidateRedactPatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
	}
	return nil
}

// ValidateBackend validates a store backend name
func (v *Validator) ValidateBackend(backend string) error {
	if !oneOf(backend, validBackends) {
		return fmt.Errorf("invalid store backend: %s (must be one of: %s)", backend, strings.Join(validBackends, ", "))
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	if !oneOf(level, validLevels) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
