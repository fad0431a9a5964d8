package thread

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/harun/recall/internal/observability"
	"github.com/rs/zerolog"
)

const memoryBackend = "memory"

// MemoryStore keeps transcripts in process memory for the lifetime of the store.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string][]Message
	logger  zerolog.Logger
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts Options) *MemoryStore {
	observability.EnsureRegistered()
	return &MemoryStore{
		threads: make(map[string][]Message),
		logger:  opts.Logger,
		now:     time.Now,
	}
}

// Load returns a copy of the thread's transcript.
func (s *MemoryStore) Load(ctx context.Context, threadID string) (msgs []Message, err error) {
	start := time.Now()
	defer func() { recordLoad(memoryBackend, start, err) }()

	if err := ValidateThreadID(threadID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.threads[threadID]
	out := make([]Message, len(stored))
	copy(out, stored)
	return out, nil
}

// Append extends the thread under the store lock, so batches never interleave.
func (s *MemoryStore) Append(ctx context.Context, threadID string, msgs ...Message) (err error) {
	start := time.Now()
	defer func() { recordAppend(memoryBackend, start, err) }()

	batch, err := prepareBatch(threadID, msgs, s.now())
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	_, existed := s.threads[threadID]
	s.threads[threadID] = append(s.threads[threadID], batch...)
	count := len(s.threads)
	s.mu.Unlock()

	if !existed {
		observability.SetKnownThreads(count)
	}

	s.logger.Debug().
		Str("thread_id", threadID).
		Int("appended", len(batch)).
		Msg("Messages appended")

	return nil
}

// Threads lists known thread IDs in lexical order.
func (s *MemoryStore) Threads(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op; the memory store holds no external resources.
func (s *MemoryStore) Close() error {
	return nil
}
