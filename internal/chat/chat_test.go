package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/store"
)

type memoryHistory struct {
	mu        sync.Mutex
	messages  []store.Message
	appendErr error
}

func (h *memoryHistory) AppendMessage(_ context.Context, chatID, role, content string) (*store.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return nil, h.appendErr
	}
	m := store.Message{ChatID: chatID, Role: role, Content: content}
	h.messages = append(h.messages, m)
	return &m, nil
}

func (h *memoryHistory) Messages(_ context.Context, chatID string) ([]store.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []store.Message
	for _, m := range h.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

type staticDocuments struct {
	doc *store.Document
	err error
}

func (d staticDocuments) GetLatestDocument(context.Context, string) (*store.Document, error) {
	return d.doc, d.err
}

type stubStreamer struct {
	chunks   []string
	err      error
	received []ai.Message
}

func (s *stubStreamer) Stream(_ context.Context, messages []ai.Message, onChunk func(string)) (string, error) {
	s.received = messages
	var full strings.Builder
	for _, c := range s.chunks {
		full.WriteString(c)
		onChunk(c)
	}
	return full.String(), s.err
}

func collect(events *[]Event) func(Event) {
	return func(e Event) { *events = append(*events, e) }
}

func TestSendStreamsChunksInOrder(t *testing.T) {
	history := &memoryHistory{}
	streamer := &stubStreamer{chunks: []string{"Hel", "lo", "!"}}
	docs := staticDocuments{doc: &store.Document{Content: "Go developer"}}
	svc := New(streamer, history, docs, Config{}, zap.NewNop())

	var events []Event
	require.NoError(t, svc.Send(context.Background(), "alice", "c1", "Hi there", collect(&events)))

	assert.Equal(t, []Event{
		{Type: EventChunk, Text: "Hel"},
		{Type: EventChunk, Text: "lo"},
		{Type: EventChunk, Text: "!"},
		{Type: EventDone},
	}, events)

	require.Len(t, streamer.received, 1)
	assert.Equal(t, "User Resume/Profile:\nGo developer\n\nHi there", streamer.received[0].Content)

	require.Len(t, history.messages, 2)
	assert.Equal(t, store.Message{ChatID: "c1", Role: ai.RoleUser, Content: "Hi there"}, history.messages[0])
	assert.Equal(t, store.Message{ChatID: "c1", Role: ai.RoleAssistant, Content: "Hello!"}, history.messages[1])
}

func TestSendFallbackOnStreamError(t *testing.T) {
	history := &memoryHistory{}
	streamer := &stubStreamer{err: errors.New("connection reset")}
	svc := New(streamer, history, nil, Config{}, nil)

	var events []Event
	require.NoError(t, svc.Send(context.Background(), "alice", "c1", "Hi", collect(&events)))

	assert.Equal(t, []Event{
		{Type: EventFallback, Text: FallbackMessage},
		{Type: EventDone},
	}, events)

	require.Len(t, history.messages, 2)
	assert.Equal(t, FallbackMessage, history.messages[1].Content)
}

func TestSendPartialStreamKeepsFallbackOutOfHistory(t *testing.T) {
	history := &memoryHistory{}
	streamer := &stubStreamer{chunks: []string{"partial"}, err: errors.New("eof")}
	svc := New(streamer, history, nil, Config{}, nil)

	var events []Event
	require.NoError(t, svc.Send(context.Background(), "alice", "c1", "Hi", collect(&events)))

	assert.Equal(t, []Event{
		{Type: EventChunk, Text: "partial"},
		{Type: EventFallback, Text: FallbackMessage},
		{Type: EventDone},
	}, events)
	assert.Len(t, history.messages, 1, "no reply is stored after a partial stream")
}

func TestSendFallbackOnDocumentError(t *testing.T) {
	history := &memoryHistory{}
	streamer := &stubStreamer{chunks: []string{"never"}}
	svc := New(streamer, history, staticDocuments{err: errors.New("db down")}, Config{}, nil)

	var events []Event
	require.NoError(t, svc.Send(context.Background(), "alice", "c1", "Hi", collect(&events)))

	assert.Nil(t, streamer.received, "provider must not be called")
	assert.Equal(t, []Event{{Type: EventFallback, Text: FallbackMessage}, {Type: EventDone}}, events)
}

func TestSendRejectsEmptyAndStoreFailures(t *testing.T) {
	svc := New(&stubStreamer{}, &memoryHistory{}, nil, Config{}, nil)

	var events []Event
	assert.Error(t, svc.Send(context.Background(), "alice", "c1", "  ", collect(&events)))

	failing := New(&stubStreamer{}, &memoryHistory{appendErr: store.ErrNotFound}, nil, Config{}, nil)
	err := failing.Send(context.Background(), "alice", "missing", "hi", collect(&events))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, events)
}

func TestBuildMessages(t *testing.T) {
	prefix := ResumePrefix("resume", 1000)

	t.Run("keeps last four and prefixes first user message", func(t *testing.T) {
		history := []ai.Message{
			{Role: ai.RoleUser, Content: "m1"},
			{Role: ai.RoleAssistant, Content: "a1"},
			{Role: ai.RoleUser, Content: "m2"},
			{Role: ai.RoleAssistant, Content: "a2"},
			{Role: ai.RoleUser, Content: "m3"},
		}
		got := BuildMessages(history, "m3", prefix, 4)
		assert.Equal(t, []ai.Message{
			{Role: ai.RoleAssistant, Content: "a1"},
			{Role: ai.RoleUser, Content: prefix + "m2"},
			{Role: ai.RoleAssistant, Content: "a2"},
			{Role: ai.RoleUser, Content: "m3"},
		}, got)
		assert.Equal(t, "m2", history[2].Content, "input must not be modified")
	})

	t.Run("drops apology messages", func(t *testing.T) {
		history := []ai.Message{
			{Role: ai.RoleUser, Content: "q"},
			{Role: ai.RoleAssistant, Content: FallbackMessage},
			{Role: ai.RoleAssistant, Content: legacyFallback},
			{Role: ai.RoleUser, Content: "again"},
		}
		got := BuildMessages(history, "again", "", 4)
		assert.Equal(t, []ai.Message{
			{Role: ai.RoleUser, Content: "q"},
			{Role: ai.RoleUser, Content: "again"},
		}, got)
	})

	t.Run("falls back to current message", func(t *testing.T) {
		history := []ai.Message{
			{Role: ai.RoleAssistant, Content: FallbackMessage},
			{Role: ai.RoleAssistant, Content: ""},
		}
		got := BuildMessages(history, "current", prefix, 4)
		assert.Equal(t, []ai.Message{{Role: ai.RoleUser, Content: prefix + "current"}}, got)
	})

	t.Run("no user message leaves prefix unused", func(t *testing.T) {
		history := []ai.Message{{Role: ai.RoleAssistant, Content: "hello"}}
		got := BuildMessages(history, "x", prefix, 4)
		assert.Equal(t, history, got)
	})
}

func TestResumePrefix(t *testing.T) {
	assert.Equal(t, "", ResumePrefix("", 10))
	assert.Equal(t, "User Resume/Profile:\nshort\n\n", ResumePrefix("short", 10))
	assert.Equal(t, "User Resume/Profile:\n0123456789...\n\n", ResumePrefix("0123456789abc", 10))
	assert.Equal(t, "User Resume/Profile:\nexactly10!\n\n", ResumePrefix("exactly10!", 10))

	long := strings.Repeat("é", DefaultResumePrefixLimit+5)
	got := ResumePrefix(long, DefaultResumePrefixLimit)
	assert.Equal(t, resumeHeader+strings.Repeat("é", DefaultResumePrefixLimit)+"...\n\n", got)
}
