package thread

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harun/recall/internal/observability"
	"github.com/harun/recall/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

const (
	fileBackend   = "jsonl"
	fileExtension = ".jsonl"

	// maxFileThreadIDLen keeps id+extension under the common 255-byte name limit.
	maxFileThreadIDLen = 255 - len(fileExtension)
)

// fileEntry is one JSONL line.
type fileEntry struct {
	ThreadID string  `json:"threadId"`
	Message  Message `json:"message"`
}

// FileStore persists each thread as a JSONL file under a directory.
type FileStore struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time

	locks   map[string]*sync.Mutex
	locksMu sync.Mutex
}

// NewFileStore creates the directory if needed and returns a store rooted there.
func NewFileStore(opts Options) (*FileStore, error) {
	observability.EnsureRegistered()

	if opts.Dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &FileStore{
		dir:    opts.Dir,
		logger: opts.Logger,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}

	if ids, err := s.Threads(context.Background()); err == nil {
		observability.SetKnownThreads(len(ids))
	}
	s.logger.Debug().Str("dir", opts.Dir).Msg("File store initialized")

	return s, nil
}

// validateFileThreadID rejects IDs that cannot be used as a file name.
func validateFileThreadID(threadID string) error {
	if err := ValidateThreadID(threadID); err != nil {
		return err
	}
	if strings.Contains(threadID, "..") {
		return fmt.Errorf("%w: cannot contain '..'", ErrInvalidThreadID)
	}
	if strings.ContainsAny(threadID, "/\\") {
		return fmt.Errorf("%w: cannot contain path separators", ErrInvalidThreadID)
	}
	if strings.Contains(threadID, "\x00") {
		return fmt.Errorf("%w: cannot contain null bytes", ErrInvalidThreadID)
	}
	if len(threadID) > maxFileThreadIDLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidThreadID, maxFileThreadIDLen)
	}
	return nil
}

func (s *FileStore) path(threadID string) string {
	return filepath.Join(s.dir, threadID+fileExtension)
}

// lock returns the mutex serializing access to one thread's file.
func (s *FileStore) lock(threadID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	if l, ok := s.locks[threadID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[threadID] = l
	return l
}

// Load reads the thread's file. Unparseable lines are skipped with a warning.
func (s *FileStore) Load(ctx context.Context, threadID string) (msgs []Message, err error) {
	ctx, span := tracing.StartSpan(ctx, "recall.thread", "thread.load",
		attribute.String("thread_id", threadID),
		attribute.String("backend", fileBackend),
	)
	defer span.End()
	start := time.Now()
	defer func() {
		recordLoad(fileBackend, start, err)
		if err != nil {
			tracing.FailSpan(span, err)
		}
	}()
	logger := tracing.LoggerFromContext(ctx, s.logger)

	if err := validateFileThreadID(threadID); err != nil {
		return nil, err
	}

	l := s.lock(threadID)
	l.Lock()
	defer l.Unlock()

	file, err := os.Open(s.path(threadID))
	if os.IsNotExist(err) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open thread file: %w", err)
	}
	defer file.Close()

	msgs = []Message{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry fileEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			logger.Warn().Int("line", lineNum).Err(err).Msg("Failed to parse line, skipping")
			continue
		}
		if err := entry.Message.Validate(); err != nil {
			logger.Warn().Int("line", lineNum).Err(err).Msg("Invalid entry, skipping")
			continue
		}

		msgs = append(msgs, entry.Message)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read thread file: %w", err)
	}

	return msgs, nil
}

// Append writes the whole batch with a single write followed by fsync.
func (s *FileStore) Append(ctx context.Context, threadID string, msgs ...Message) (err error) {
	ctx, span := tracing.StartSpan(ctx, "recall.thread", "thread.append",
		attribute.String("thread_id", threadID),
		attribute.String("backend", fileBackend),
		attribute.Int("messages", len(msgs)),
	)
	defer span.End()
	start := time.Now()
	defer func() {
		recordAppend(fileBackend, start, err)
		if err != nil {
			tracing.FailSpan(span, err)
		}
	}()
	logger := tracing.LoggerFromContext(ctx, s.logger)

	if err := validateFileThreadID(threadID); err != nil {
		return err
	}
	batch, err := prepareBatch(threadID, msgs, s.now())
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	var buf []byte
	for _, m := range batch {
		data, err := json.Marshal(fileEntry{ThreadID: threadID, Message: m})
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}

	l := s.lock(threadID)
	l.Lock()
	defer l.Unlock()

	path := s.path(threadID)
	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open thread file: %w", err)
	}
	defer file.Close()

	torn, err := endsWithPartialLine(file)
	if err != nil {
		return fmt.Errorf("failed to inspect thread file: %w", err)
	}
	if torn {
		// keep the new batch off the tail of an interrupted write
		logger.Warn().Msg("Thread file ends with a partial line, starting a new line")
		buf = append([]byte{'\n'}, buf...)
	}

	if _, err := file.Write(buf); err != nil {
		return fmt.Errorf("failed to write messages: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if created {
		if ids, err := s.Threads(ctx); err == nil {
			observability.SetKnownThreads(len(ids))
		}
	}

	logger.Debug().Int("appended", len(batch)).Msg("Messages appended")
	return nil
}

// endsWithPartialLine reports whether a non-empty file lacks a trailing newline.
func endsWithPartialLine(file *os.File) (bool, error) {
	info, err := file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

// Threads lists the thread files in the store directory.
func (s *FileStore) Threads(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExtension) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), fileExtension))
	}
	sort.Strings(ids)
	return ids, nil
}

// Close drops the per-thread locks.
func (s *FileStore) Close() error {
	s.locksMu.Lock()
	s.locks = make(map[string]*sync.Mutex)
	s.locksMu.Unlock()
	return nil
}
