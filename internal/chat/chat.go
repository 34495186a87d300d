// Package chat relays a user's conversation to a streaming provider with a
// trimmed history and the user's latest resume as context.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/store"
)

const (
	FallbackMessage = "Sorry, I encountered an error while processing your request. Please try again."
	legacyFallback  = "Sorry, I encountered an error while processing your request."

	DefaultHistoryLimit      = 4
	DefaultResumePrefixLimit = 1000

	resumeHeader = "User Resume/Profile:\n"
)

// History is the chat persistence the service needs.
type History interface {
	AppendMessage(ctx context.Context, chatID, role, content string) (*store.Message, error)
	Messages(ctx context.Context, chatID string) ([]store.Message, error)
}

// Documents resolves the resume used as conversation context.
type Documents interface {
	GetLatestDocument(ctx context.Context, userID string) (*store.Document, error)
}

// EventType distinguishes the events delivered during Send.
type EventType int

const (
	EventChunk EventType = iota
	EventFallback
	EventDone
)

type Event struct {
	Type EventType
	Text string
}

type Config struct {
	HistoryLimit      int
	ResumePrefixLimit int
}

type Service struct {
	streamer  ai.Streamer
	history   History
	documents Documents
	cfg       Config
	logger    *zap.Logger
}

func New(streamer ai.Streamer, history History, documents Documents, cfg Config, log *zap.Logger) *Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.ResumePrefixLimit <= 0 {
		cfg.ResumePrefixLimit = DefaultResumePrefixLimit
	}
	return &Service{
		streamer:  streamer,
		history:   history,
		documents: documents,
		cfg:       cfg,
		logger:    logger.WithFields(log),
	}
}

// Send stores the user's message, streams the reply through onEvent and
// stores the reply. Once the user's message is stored, chunks arrive in
// receipt order and EventDone is the last event, delivered exactly once. A
// provider failure is reported as a single EventFallback and is not returned
// as an error.
func (s *Service) Send(ctx context.Context, userID, chatID, content string, onEvent func(Event)) error {
	if onEvent == nil {
		onEvent = func(Event) {}
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("message is empty")
	}

	if _, err := s.history.AppendMessage(ctx, chatID, ai.RoleUser, content); err != nil {
		return fmt.Errorf("store user message: %w", err)
	}

	defer onEvent(Event{Type: EventDone})

	log := logger.WithFields(s.logger, logger.StringFields(
		logger.StringField{Key: "chat_id", Value: chatID},
		logger.StringField{Key: logger.FieldUser, Value: userID},
	)...)

	messages, err := s.buildContext(ctx, userID, chatID, content)
	if err != nil {
		log.Error("building chat context", zap.Error(err))
		s.fail(ctx, log, chatID, "", onEvent)
		return nil
	}

	reply, err := s.streamer.Stream(ctx, messages, func(chunk string) {
		onEvent(Event{Type: EventChunk, Text: chunk})
	})
	if err != nil {
		log.Error("streaming chat reply", zap.Error(err))
		s.fail(ctx, log, chatID, reply, onEvent)
		return nil
	}

	if reply != "" {
		if _, err := s.history.AppendMessage(ctx, chatID, ai.RoleAssistant, reply); err != nil {
			log.Error("storing assistant reply", zap.Error(err))
		}
	}

	log.Debug("chat reply streamed", zap.Int("reply_length", utf8.RuneCountInString(reply)))
	return nil
}

// fail emits the fallback message. The apology is only persisted when no
// part of a reply reached the user.
func (s *Service) fail(ctx context.Context, log *zap.Logger, chatID, partial string, onEvent func(Event)) {
	onEvent(Event{Type: EventFallback, Text: FallbackMessage})

	if partial != "" {
		return
	}
	if _, err := s.history.AppendMessage(context.WithoutCancel(ctx), chatID, ai.RoleAssistant, FallbackMessage); err != nil {
		log.Error("storing fallback message", zap.Error(err))
	}
}

// buildContext trims the stored history and prepends the resume to the first
// user message of the window.
func (s *Service) buildContext(ctx context.Context, userID, chatID, current string) ([]ai.Message, error) {
	stored, err := s.history.Messages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	prefix := ""
	if s.documents != nil {
		doc, err := s.documents.GetLatestDocument(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load latest document: %w", err)
		}
		if doc != nil {
			prefix = ResumePrefix(doc.Content, s.cfg.ResumePrefixLimit)
		}
	}

	history := make([]ai.Message, 0, len(stored))
	for _, m := range stored {
		history = append(history, ai.Message{Role: m.Role, Content: m.Content})
	}

	return BuildMessages(history, current, prefix, s.cfg.HistoryLimit), nil
}

// ResumePrefix renders the resume header, truncating content to limit runes.
// An empty resume yields an empty prefix.
func ResumePrefix(content string, limit int) string {
	if content == "" {
		return ""
	}
	if utf8.RuneCountInString(content) > limit {
		content = string([]rune(content)[:limit]) + "..."
	}
	return resumeHeader + content + "\n\n"
}

// BuildMessages keeps the last limit messages, prefixes the first user message
// among them and drops empty and apology messages. If nothing survives, the
// current message alone is sent.
func BuildMessages(history []ai.Message, current, prefix string, limit int) []ai.Message {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	window := make([]ai.Message, len(history))
	copy(window, history)

	if prefix != "" {
		for i := range window {
			if window[i].Role == ai.RoleUser {
				window[i].Content = prefix + window[i].Content
				break
			}
		}
	}

	out := make([]ai.Message, 0, len(window))
	for _, m := range window {
		if m.Role == "" || m.Content == "" || isFallback(m.Content) {
			continue
		}
		out = append(out, m)
	}

	if len(out) == 0 {
		out = append(out, ai.Message{Role: ai.RoleUser, Content: prefix + current})
	}
	return out
}

func isFallback(content string) bool {
	return content == FallbackMessage || content == legacyFallback
}
