package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const DefaultChatTitle = "New Chat"

type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateChat starts an empty conversation for userID.
func (s *Store) CreateChat(ctx context.Context, userID, title, provider string) (*Chat, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("create chat: user is required")
	}
	if title = strings.TrimSpace(title); title == "" {
		title = DefaultChatTitle
	}

	ts := s.timestamp()
	chat := &Chat{
		ID:        s.newID(),
		UserID:    userID,
		Title:     title,
		Provider:  provider,
		CreatedAt: fromTimestamp(ts),
		UpdatedAt: fromTimestamp(ts),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, title, provider, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		chat.ID, chat.UserID, chat.Title, chat.Provider, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("create chat: insert: %w", err)
	}
	return chat, nil
}

// GetChat returns a chat owned by userID.
func (s *Store) GetChat(ctx context.Context, userID, chatID string) (*Chat, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, provider, created_at, updated_at FROM chats WHERE user_id = ? AND id = ?`,
		userID, chatID,
	)

	chat, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return chat, nil
}

// ListChats returns the chats of userID, most recently updated first.
func (s *Store) ListChats(ctx context.Context, userID string) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, provider, created_at, updated_at FROM chats
		 WHERE user_id = ? ORDER BY updated_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("list chats: scan: %w", err)
		}
		chats = append(chats, *chat)
	}
	return chats, rows.Err()
}

// DeleteChat removes a chat and its messages.
func (s *Store) DeleteChat(ctx context.Context, userID, chatID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE user_id = ? AND id = ?`, userID, chatID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	return nil
}

// AppendMessage adds a message to the end of a chat and bumps its update time.
func (s *Store) AppendMessage(ctx context.Context, chatID, role, content string) (*Message, error) {
	if role != "user" && role != "assistant" {
		return nil, fmt.Errorf("append message: invalid role %q", role)
	}
	if content == "" {
		return nil, errors.New("append message: content is empty")
	}

	ts := s.timestamp()
	msg := &Message{
		ID:        s.newID(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: fromTimestamp(ts),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("append message: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE chats SET updated_at = ? WHERE id = ?`, ts, chatID)
	if err != nil {
		return nil, fmt.Errorf("append message: touch chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatID, msg.Role, msg.Content, ts,
	); err != nil {
		return nil, fmt.Errorf("append message: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("append message: commit: %w", err)
	}
	return msg, nil
}

// Messages returns the messages of a chat in insertion order.
func (s *Store) Messages(ctx context.Context, chatID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, created_at FROM messages WHERE chat_id = ? ORDER BY seq`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var (
			m  Message
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("list messages: scan: %w", err)
		}
		m.CreatedAt = fromTimestamp(ts)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func scanChat(row scanner) (*Chat, error) {
	var (
		chat             Chat
		created, updated int64
	)
	if err := row.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Provider, &created, &updated); err != nil {
		return nil, err
	}
	chat.CreatedAt = fromTimestamp(created)
	chat.UpdatedAt = fromTimestamp(updated)
	return &chat, nil
}
