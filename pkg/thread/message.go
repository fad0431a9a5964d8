package thread

import (
	"errors"
	"fmt"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrInvalidThreadID is returned for empty thread IDs, or IDs a backend cannot store.
	ErrInvalidThreadID = errors.New("invalid thread id")
	// ErrInvalidMessage is returned for messages without a role or content.
	ErrInvalidMessage = errors.New("invalid message")
)

// Message is a single role-tagged entry of a transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Validate checks the message has a known role and non-empty content.
func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	case "":
		return fmt.Errorf("%w: role cannot be empty", ErrInvalidMessage)
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, m.Role)
	}
	if m.Content == "" {
		return fmt.Errorf("%w: content cannot be empty", ErrInvalidMessage)
	}
	return nil
}

// ValidateThreadID rejects empty IDs. Any other string is a valid thread ID.
func ValidateThreadID(threadID string) error {
	if threadID == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidThreadID)
	}
	return nil
}

// prepareBatch validates msgs and stamps zero timestamps with now.
// The returned slice is a copy.
func prepareBatch(threadID string, msgs []Message, now time.Time) ([]Message, error) {
	if err := ValidateThreadID(threadID); err != nil {
		return nil, err
	}
	batch := make([]Message, len(msgs))
	for i, m := range msgs {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		batch[i] = m
	}
	return batch, nil
}
