package thread

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harun/recall/internal/observability"
	"github.com/harun/recall/internal/tracing"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

const sqliteBackend = "sqlite"

// SQLiteStore persists transcripts as rows of a single SQLite table.
// (thread_id, seq) is the primary key, so a batch either lands whole after
// the current tail or not at all.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) the database at opts.Path.
func NewSQLiteStore(opts Options) (*SQLiteStore, error) {
	observability.EnsureRegistered()

	if opts.Path == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", opts.Path+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers inside the process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: opts.Logger,
		now:    time.Now,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if ids, err := s.Threads(context.Background()); err == nil {
		observability.SetKnownThreads(len(ids))
	}
	s.logger.Debug().Str("path", opts.Path).Msg("SQLite store initialized")

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS messages (
			thread_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (thread_id, seq)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the thread's messages ordered by sequence number.
func (s *SQLiteStore) Load(ctx context.Context, threadID string) (msgs []Message, err error) {
	ctx, span := tracing.StartSpan(ctx, "recall.thread", "thread.load",
		attribute.String("thread_id", threadID),
		attribute.String("backend", sqliteBackend),
	)
	defer span.End()
	start := time.Now()
	defer func() {
		recordLoad(sqliteBackend, start, err)
		if err != nil {
			tracing.FailSpan(span, err)
		}
	}()

	if err := ValidateThreadID(threadID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages WHERE thread_id = ? ORDER BY seq`,
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query thread: %w", err)
	}
	defer rows.Close()

	msgs = []Message{}
	for rows.Next() {
		var (
			m         Message
			createdAt int64
		)
		if err := rows.Scan(&m.Role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Timestamp = time.Unix(0, createdAt)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read thread: %w", err)
	}

	return msgs, nil
}

// Append inserts the batch after the thread's current tail in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, threadID string, msgs ...Message) (err error) {
	ctx, span := tracing.StartSpan(ctx, "recall.thread", "thread.append",
		attribute.String("thread_id", threadID),
		attribute.String("backend", sqliteBackend),
		attribute.Int("messages", len(msgs)),
	)
	defer span.End()
	start := time.Now()
	defer func() {
		recordAppend(sqliteBackend, start, err)
		if err != nil {
			tracing.FailSpan(span, err)
		}
	}()
	logger := tracing.LoggerFromContext(ctx, s.logger)

	batch, err := prepareBatch(threadID, msgs, s.now())
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq) + 1, 0) FROM messages WHERE thread_id = ?`,
		threadID,
	).Scan(&next); err != nil {
		return fmt.Errorf("failed to read thread tail: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (thread_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range batch {
		if _, err := stmt.ExecContext(ctx, threadID, next+int64(i), m.Role, m.Content, m.Timestamp.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	if next == 0 {
		if ids, err := s.Threads(ctx); err == nil {
			observability.SetKnownThreads(len(ids))
		}
	}

	logger.Debug().Int64("first_seq", next).Int("appended", len(batch)).Msg("Messages appended")
	return nil
}

// Threads lists distinct thread IDs in lexical order.
func (s *SQLiteStore) Threads(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT thread_id FROM messages ORDER BY thread_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan thread id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
