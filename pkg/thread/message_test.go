package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateThreadID(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		shouldErr bool
	}{
		{"valid id", "vvk", false},
		{"nanoid style", "V1StGXR8_Z5jdHi6B-myT", false},
		{"empty id", "", true},
		{"slash is opaque", "user/42", false},
		{"dots are opaque", "a..b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThreadID(tt.id)
			if tt.shouldErr {
				assert.ErrorIs(t, err, ErrInvalidThreadID)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessageValidate(t *testing.T) {
	assert.NoError(t, UserMessage("hi").Validate())
	assert.NoError(t, AssistantMessage("hello").Validate())
	assert.NoError(t, SystemMessage("be brief").Validate())
	assert.ErrorIs(t, Message{Role: "tool", Content: "x"}.Validate(), ErrInvalidMessage)
	assert.ErrorIs(t, Message{Role: RoleUser}.Validate(), ErrInvalidMessage)
}

func TestPrepareBatch(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	in := []Message{UserMessage("q"), {Role: RoleAssistant, Content: "a", Timestamp: earlier}}
	out, err := prepareBatch("t1", in, now)
	require.NoError(t, err)

	assert.Equal(t, now, out[0].Timestamp)
	assert.Equal(t, earlier, out[1].Timestamp)
	assert.True(t, in[0].Timestamp.IsZero(), "input must not be modified")
}
