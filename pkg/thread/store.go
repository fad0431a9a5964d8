package thread

import (
	"context"
	"fmt"
	"time"

	"github.com/harun/recall/internal/observability"
	"github.com/rs/zerolog"
)

// Store holds the transcript of every thread.
type Store interface {
	// Load returns a copy of the thread's transcript, empty if the thread is unknown.
	Load(ctx context.Context, threadID string) ([]Message, error)
	// Append atomically extends the thread's transcript by msgs, in order.
	Append(ctx context.Context, threadID string, msgs ...Message) error
	// Threads lists the IDs of all threads with at least one message.
	Threads(ctx context.Context) ([]string, error)
	Close() error
}

// Options configures store construction.
type Options struct {
	Backend string // memory, jsonl, sqlite
	Dir     string // jsonl directory
	Path    string // sqlite database file
	Logger  zerolog.Logger
}

// Open creates the store selected by opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", memoryBackend:
		return NewMemoryStore(opts), nil
	case fileBackend:
		s, err := NewFileStore(opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	case sqliteBackend:
		s, err := NewSQLiteStore(opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", opts.Backend)
	}
}

func recordLoad(backend string, start time.Time, err error) {
	observability.RecordStoreLoad(backend, time.Since(start), err)
}

func recordAppend(backend string, start time.Time, err error) {
	observability.RecordStoreAppend(backend, time.Since(start), err)
}
