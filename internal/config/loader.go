package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// providerEnvKeys lists the conventional credential variables per provider,
// consulted when no api_key is configured.
var providerEnvKeys = map[string][]string{
	"gemini":    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
}

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load reads the config file if present, applies RECALL_* environment
// overrides and fills in derived paths. A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	configPath := l.GetConfigPath()

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix("RECALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = apiKeyFromEnv(cfg.Model.Provider)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".recall")
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = filepath.Join(cfg.DataDir, "threads")
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(cfg.DataDir, "recall.db")
	}

	return cfg, nil
}

// Save writes cfg to the config file, creating its directory if needed.
func (l *Loader) Save(cfg *Config) error {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return fmt.Errorf("failed to determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("model", cfg.Model)
	v.Set("store", cfg.Store)
	v.Set("system_prompt", cfg.SystemPrompt)
	v.Set("logging", cfg.Logging)
	v.Set("data_dir", cfg.DataDir)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(configPath, 0600)
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".recall", "recall.json")
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}

// setDefaults registers every key so AutomaticEnv can override it on Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("model.provider", cfg.Model.Provider)
	v.SetDefault("model.name", cfg.Model.Name)
	v.SetDefault("model.temperature", cfg.Model.Temperature)
	v.SetDefault("model.max_tokens", cfg.Model.MaxTokens)
	v.SetDefault("model.api_key", cfg.Model.APIKey)
	v.SetDefault("model.base_url", cfg.Model.BaseURL)
	v.SetDefault("model.timeout", cfg.Model.Timeout)
	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.dir", cfg.Store.Dir)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("system_prompt", cfg.SystemPrompt)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
	v.SetDefault("logging.redaction", cfg.Logging.Redaction)
	v.SetDefault("logging.audit_file", cfg.Logging.AuditFile)
	v.SetDefault("logging.redact_patterns", cfg.Logging.RedactPatterns)
	v.SetDefault("data_dir", cfg.DataDir)
}

func apiKeyFromEnv(provider string) string {
	for _, name := range providerEnvKeys[provider] {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}
