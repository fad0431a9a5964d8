package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// defaultModels is the model offered per provider when none is entered.
var defaultModels = map[string]string{
	"gemini":    "gemini-2.0-flash-exp",
	"anthropic": "claude-3-5-haiku-latest",
	"openai":    "gpt-4o-mini",
}

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a new configuration wizard reading answers from in
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run runs the interactive configuration wizard
func (w *Wizard) Run() (*Config, error) {
	fmt.Fprintln(w.out, "=== Recall Configuration Wizard ===")
	fmt.Fprintln(w.out)

	cfg := DefaultConfig()
	validator := NewValidator()

	// Provider
	for {
		fmt.Fprintf(w.out, "Model provider (%s) [%s]: ", strings.Join(validProviders, "/"), cfg.Model.Provider)
		provider, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if provider == "" {
			break
		}
		if err := validator.ValidateProvider(provider); err != nil {
			fmt.Fprintf(w.out, "Error: %v\n", err)
			continue
		}
		cfg.Model.Provider = provider
		cfg.Model.Name = defaultModels[provider]
		break
	}

	// API key
	for {
		fmt.Fprintf(w.out, "%s API key (press Enter to use %s): ", cfg.Model.Provider, strings.Join(providerEnvKeys[cfg.Model.Provider], " or "))
		key, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if key == "" {
			break
		}
		if err := validator.ValidateAPIKey(key, cfg.Model.Provider); err != nil {
			fmt.Fprintf(w.out, "Error: %v\n", err)
			continue
		}
		cfg.Model.APIKey = key
		break
	}

	// Model name
	fmt.Fprintf(w.out, "Model name [%s]: ", cfg.Model.Name)
	name, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if name != "" {
		cfg.Model.Name = name
	}

	// Temperature
	fmt.Fprintf(w.out, "Temperature [%g]: ", cfg.Model.Temperature)
	temp, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if temp != "" {
		value, err := strconv.ParseFloat(temp, 64)
		if err == nil {
			err = validator.ValidateTemperature(value, cfg.Model.Provider)
		}
		if err != nil {
			fmt.Fprintf(w.out, "Warning: %v, using default (%g)\n", err, cfg.Model.Temperature)
		} else {
			cfg.Model.Temperature = value
		}
	}

	fmt.Fprintln(w.out)

	// Store
	fmt.Fprintln(w.out, "Thread storage:")
	fmt.Fprintln(w.out, "  memory - kept for the lifetime of the process (default)")
	fmt.Fprintln(w.out, "  jsonl  - one file per thread")
	fmt.Fprintln(w.out, "  sqlite - single database file")
	fmt.Fprintf(w.out, "Store backend [%s]: ", cfg.Store.Backend)
	backend, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if backend != "" {
		if err := validator.ValidateBackend(backend); err != nil {
			fmt.Fprintf(w.out, "Warning: %v, using default (%s)\n", err, cfg.Store.Backend)
		} else {
			cfg.Store.Backend = backend
		}
	}

	fmt.Fprintln(w.out)

	// Log Level
	fmt.Fprintf(w.out, "Log level (%s) [%s]: ", strings.Join(validLevels, "/"), cfg.Logging.Level)
	level, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			fmt.Fprintf(w.out, "Warning: %v, using default (%s)\n", err, cfg.Logging.Level)
		} else {
			cfg.Logging.Level = level
		}
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration complete!")

	return cfg, nil
}

// readLine returns the next trimmed line; a final line without newline is accepted.
func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
