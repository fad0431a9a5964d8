package config

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardRun(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, err := NewWizard(strings.NewReader(strings.Repeat("\n", 6)), out).Run()
		require.NoError(t, err)

		assert.Equal(t, "gemini", cfg.Model.Provider)
		assert.Equal(t, "gemini-2.0-flash-exp", cfg.Model.Name)
		assert.Equal(t, "memory", cfg.Store.Backend)
		assert.Contains(t, out.String(), "Configuration complete!")
	})

	t.Run("custom answers", func(t *testing.T) {
		answers := strings.Join([]string{
			"anthropic",
			"sk-ant-test",
			"",
			"0.3",
			"sqlite",
			"debug",
		}, "\n") + "\n"

		cfg, err := NewWizard(strings.NewReader(answers), io.Discard).Run()
		require.NoError(t, err)

		assert.Equal(t, "anthropic", cfg.Model.Provider)
		assert.Equal(t, "claude-3-5-haiku-latest", cfg.Model.Name)
		assert.Equal(t, "sk-ant-test", cfg.Model.APIKey)
		assert.Equal(t, 0.3, cfg.Model.Temperature)
		assert.Equal(t, "sqlite", cfg.Store.Backend)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("reprompts on invalid provider and key", func(t *testing.T) {
		answers := "llama\nopenai\nnot-a-key\nsk-test\ngpt-4o\n\n\n\n"
		out := &bytes.Buffer{}

		cfg, err := NewWizard(strings.NewReader(answers), out).Run()
		require.NoError(t, err)

		assert.Equal(t, "openai", cfg.Model.Provider)
		assert.Equal(t, "sk-test", cfg.Model.APIKey)
		assert.Equal(t, "gpt-4o", cfg.Model.Name)
		assert.Equal(t, 2, strings.Count(out.String(), "Error:"))
	})

	t.Run("invalid optional values fall back", func(t *testing.T) {
		answers := "\n\n\nhot\npostgres\nloud\n"
		out := &bytes.Buffer{}

		cfg, err := NewWizard(strings.NewReader(answers), out).Run()
		require.NoError(t, err)

		assert.Zero(t, cfg.Model.Temperature)
		assert.Equal(t, "memory", cfg.Store.Backend)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, 3, strings.Count(out.String(), "Warning:"))
	})

	t.Run("input ends early", func(t *testing.T) {
		_, err := NewWizard(strings.NewReader("gemini\n"), io.Discard).Run()
		assert.ErrorIs(t, err, io.EOF)
	})
}
