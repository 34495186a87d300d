package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	clock := &stepClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s, err := Open(context.Background(), MemoryPath, WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(context.Background(), path)
	require.NoError(t, err, "migrations must be idempotent")
	require.NoError(t, reopened.Close())
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestDocuments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	latest, err := s.GetLatestDocument(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, latest, "no documents yet")

	first, err := s.AddDocument(ctx, Document{UserID: "alice", Title: "Resume v1", Type: TypePDF, Content: "old resume"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := s.AddDocument(ctx, Document{UserID: "alice", Title: "Resume v2", Content: "new resume"})
	require.NoError(t, err)
	assert.Equal(t, TypeTXT, second.Type)

	_, err = s.AddDocument(ctx, Document{UserID: "bob", Title: "Bob CV", Content: "bob resume"})
	require.NoError(t, err)

	latest, err = s.GetLatestDocument(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "new resume", latest.Content)
	assert.True(t, latest.UploadedAt.Equal(second.UploadedAt))

	docs, err := s.ListDocuments(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, second.ID, docs[0].ID)
	assert.Equal(t, first.ID, docs[1].ID)
	assert.Equal(t, TypePDF, docs[1].Type)

	got, err := s.GetDocument(ctx, "alice", first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Resume v1", got.Title)

	_, err = s.GetDocument(ctx, "bob", first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteDocument(ctx, "alice", second.ID))
	assert.ErrorIs(t, s.DeleteDocument(ctx, "alice", second.ID), ErrNotFound)

	latest, err = s.GetLatestDocument(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)
}

func TestAddDocumentValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.AddDocument(ctx, Document{Title: "t", Content: "c"})
	assert.Error(t, err)
	_, err = s.AddDocument(ctx, Document{UserID: "u", Content: "c"})
	assert.Error(t, err)
	_, err = s.AddDocument(ctx, Document{UserID: "u", Title: "t", Content: "  "})
	assert.Error(t, err)
}

func TestTypeFromPath(t *testing.T) {
	tests := map[string]DocumentType{
		"cv.PDF":       TypePDF,
		"cv.docx":      TypeDOCX,
		"cv.doc":       TypeDOC,
		"notes.md":     TypeTXT,
		"no-extension": TypeTXT,
	}
	for path, want := range tests {
		assert.Equal(t, want, TypeFromPath(path), path)
	}
}

func TestChats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "alice", "", "gateway")
	require.NoError(t, err)
	assert.Equal(t, DefaultChatTitle, chat.Title)

	other, err := s.CreateChat(ctx, "alice", "Interview prep", "gemini")
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, chat.ID, "user", "hello")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, chat.ID, "assistant", "hi there")
	require.NoError(t, err)

	msgs, err := s.Messages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "hi there", msgs[1].Content)

	chats, err := s.ListChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, chat.ID, chats[0].ID, "appending bumps the chat to the top")
	assert.Equal(t, other.ID, chats[1].ID)

	_, err = s.GetChat(ctx, "bob", chat.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteChat(ctx, "alice", chat.ID))
	msgs, err = s.Messages(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs, "messages are removed with their chat")
}

func TestAppendMessageValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "alice", "t", "gateway")
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, chat.ID, "system", "x")
	assert.Error(t, err)
	_, err = s.AppendMessage(ctx, chat.ID, "user", "")
	assert.Error(t, err)
	_, err = s.AppendMessage(ctx, "missing", "user", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateChat(ctx, " ", "t", "gateway")
	assert.Error(t, err)
}

func TestForeignKeysSurviveReconnect(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// Every statement now runs on a freshly opened connection.
	s.db.SetMaxIdleConns(0)

	var enabled int
	require.NoError(t, s.db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&enabled))
	assert.Equal(t, 1, enabled)

	chat, err := s.CreateChat(ctx, "alice", "", "gateway")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, chat.ID, "user", "hello")
	require.NoError(t, err)

	require.NoError(t, s.DeleteChat(ctx, "alice", chat.ID))

	var orphans int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE chat_id = ?`, chat.ID).Scan(&orphans))
	assert.Zero(t, orphans)
}
