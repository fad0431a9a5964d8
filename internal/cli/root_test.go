package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/harun/recall/internal/config"
	"github.com/harun/recall/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoCompleter replies with the last user message and records requests.
type echoCompleter struct {
	mu       sync.Mutex
	requests []model.Request
	err      error
}

func (c *echoCompleter) Provider() string { return "echo" }

func (c *echoCompleter) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	return &model.Response{Content: "echo: " + req.Messages[len(req.Messages)-1].Content}, nil
}

func (c *echoCompleter) factory() completerFactory {
	return func(ctx context.Context, cfg config.ModelConfig) (model.Completer, error) {
		return c, nil
	}
}

// writeTestConfig isolates HOME and writes a config using the given backend.
func writeTestConfig(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, k := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "RECALL_MODEL_API_KEY", "RECALL_STORE_BACKEND"} {
		t.Setenv(k, "")
	}

	path := filepath.Join(dir, "recall.json")
	content := fmt.Sprintf(`{
		"data_dir": %q,
		"store": {"backend": %q},
		"logging": {"level": "error", "pretty": false}
	}`, dir, backend)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func execute(t *testing.T, factory completerFactory, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd(factory)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		out, _, err := execute(t, defaultCompleter, "", "--version")
		require.NoError(t, err)
		assert.Contains(t, out, "recall version")
		assert.Contains(t, out, GetVersion())
	})

	t.Run("help flag", func(t *testing.T) {
		out, _, err := execute(t, defaultCompleter, "", "--help")
		require.NoError(t, err)
		assert.Contains(t, out, "per-thread memory")
		for _, sub := range []string{"chat", "history", "threads", "configure"} {
			assert.Contains(t, out, sub)
		}
	})

	t.Run("global flags", func(t *testing.T) {
		cmd := NewRootCmd()
		for _, name := range []string{"config", "log-level", "metrics-addr"} {
			flag := cmd.PersistentFlags().Lookup(name)
			require.NotNil(t, flag, name)
			assert.Equal(t, "", flag.DefValue)
		}
	})
}

func TestDemo(t *testing.T) {
	cfgPath := writeTestConfig(t, "memory")
	completer := &echoCompleter{}

	out, _, err := execute(t, completer.factory(), "", "--config", cfgPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for i, prompt := range demoPrompts {
		assert.Equal(t, "echo: "+prompt, lines[i])
	}

	require.Len(t, completer.requests, 3)
	for i, req := range completer.requests {
		// system + history + new prompt
		assert.Len(t, req.Messages, 2*i+2)
	}
	third := completer.requests[2].Messages
	assert.Equal(t, config.DefaultSystemPrompt, third[0].Content)
	assert.Equal(t, demoPrompts[0], third[1].Content)
	assert.Equal(t, demoPrompts[1], third[3].Content)
}

func TestDemo_PersistsWithFileStore(t *testing.T) {
	cfgPath := writeTestConfig(t, "jsonl")
	completer := &echoCompleter{}

	_, _, err := execute(t, completer.factory(), "", "--config", cfgPath)
	require.NoError(t, err)

	out, _, err := execute(t, completer.factory(), "", "--config", cfgPath, "history", "--thread", config.DefaultThreadID)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "user: what is the weather in sf", lines[0])
	assert.Equal(t, "assistant: echo: what is the weather in sf", lines[1])
	assert.Equal(t, "user: what did i ask before", lines[4])

	out, _, err = execute(t, completer.factory(), "", "--config", cfgPath, "threads")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultThreadID+"\n", out)
}

func TestDemo_ModelFailure(t *testing.T) {
	cfgPath := writeTestConfig(t, "sqlite")
	completer := &echoCompleter{err: errors.New("quota exceeded")}

	out, _, err := execute(t, completer.factory(), "", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model call failed")
	assert.Empty(t, out)
	assert.Len(t, completer.requests, 1)

	out, _, err = execute(t, completer.factory(), "", "--config", cfgPath, "history", "--thread", config.DefaultThreadID, "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestDemo_MissingAPIKey(t *testing.T) {
	cfgPath := writeTestConfig(t, "memory")

	_, _, err := execute(t, defaultCompleter, "", "--config", cfgPath)
	assert.ErrorIs(t, err, model.ErrMissingAPIKey)
}

func TestDemo_InvalidLogLevelFlag(t *testing.T) {
	cfgPath := writeTestConfig(t, "memory")

	_, _, err := execute(t, (&echoCompleter{}).factory(), "", "--config", cfgPath, "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestDemo_MetricsServer(t *testing.T) {
	cfgPath := writeTestConfig(t, "memory")

	out, _, err := execute(t, (&echoCompleter{}).factory(), "", "--config", cfgPath, "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}
