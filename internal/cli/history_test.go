package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_RequiresThread(t *testing.T) {
	cfgPath := writeTestConfig(t, "memory")

	_, _, err := execute(t, (&echoCompleter{}).factory(), "", "--config", cfgPath, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thread")
}

func TestThreads_Empty(t *testing.T) {
	cfgPath := writeTestConfig(t, "sqlite")

	out, _, err := execute(t, (&echoCompleter{}).factory(), "", "--config", cfgPath, "threads")
	require.NoError(t, err)
	assert.Empty(t, out)
}
