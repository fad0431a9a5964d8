package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	t.Run("continues a named thread", func(t *testing.T) {
		cfgPath := writeTestConfig(t, "jsonl")
		completer := &echoCompleter{}

		out, stderr, err := execute(t, completer.factory(), "hello\n\n  again  \n", "--config", cfgPath, "chat", "--thread", "t1")
		require.NoError(t, err)
		assert.Equal(t, "echo: hello\necho: again\n", out)
		assert.Contains(t, stderr, "Thread t1")

		out, _, err = execute(t, completer.factory(), "", "--config", cfgPath, "history", "--thread", "t1")
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
	})

	t.Run("new thread id when none given", func(t *testing.T) {
		cfgPath := writeTestConfig(t, "jsonl")
		completer := &echoCompleter{}

		_, _, err := execute(t, completer.factory(), "hi\n", "--config", cfgPath, "chat")
		require.NoError(t, err)

		out, _, err := execute(t, completer.factory(), "", "--config", cfgPath, "threads")
		require.NoError(t, err)
		ids := strings.Fields(out)
		require.Len(t, ids, 1)
		assert.Len(t, ids[0], 21)
	})

	t.Run("errors are reported and the loop continues", func(t *testing.T) {
		cfgPath := writeTestConfig(t, "memory")
		completer := &echoCompleter{err: errors.New("boom")}

		out, stderr, err := execute(t, completer.factory(), "a\nb\n", "--config", cfgPath, "chat", "--thread", "t1")
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Equal(t, 2, strings.Count(stderr, "error: model call failed: boom"))
	})
}
