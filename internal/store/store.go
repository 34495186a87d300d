// Package store persists uploaded documents and chat history in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var ErrNotFound = errors.New("not found")

type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// SQLite has a single writer; one connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		title       TEXT NOT NULL,
		type        TEXT NOT NULL,
		content     TEXT NOT NULL,
		uploaded_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS documents_user_uploaded ON documents (user_id, uploaded_at)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		title      TEXT NOT NULL,
		provider   TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		chat_id    TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS messages_chat ON messages (chat_id, seq)`,
}

// dsn enables foreign keys on every connection the pool opens.
func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)"
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) timestamp() int64 {
	return s.now().UTC().UnixNano()
}

func fromTimestamp(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
