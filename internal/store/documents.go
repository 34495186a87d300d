package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DocumentType is the format a document was uploaded in.
type DocumentType string

const (
	TypePDF  DocumentType = "pdf"
	TypeTXT  DocumentType = "txt"
	TypeDOC  DocumentType = "doc"
	TypeDOCX DocumentType = "docx"
)

// TypeFromPath derives the document type from a file extension, defaulting to txt.
func TypeFromPath(path string) DocumentType {
	switch t := DocumentType(strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))); t {
	case TypePDF, TypeDOC, TypeDOCX:
		return t
	default:
		return TypeTXT
	}
}

type Document struct {
	ID         string       `json:"id"`
	UserID     string       `json:"userId"`
	Title      string       `json:"title"`
	Type       DocumentType `json:"type"`
	Content    string       `json:"content"`
	UploadedAt time.Time    `json:"uploadedAt"`
}

// AddDocument stores a new document and returns it with ID and upload time set.
func (s *Store) AddDocument(ctx context.Context, doc Document) (*Document, error) {
	doc.UserID = strings.TrimSpace(doc.UserID)
	doc.Title = strings.TrimSpace(doc.Title)
	if doc.UserID == "" || doc.Title == "" {
		return nil, errors.New("add document: user and title are required")
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, errors.New("add document: content is empty")
	}
	if doc.Type == "" {
		doc.Type = TypeTXT
	}

	doc.ID = s.newID()
	ts := s.timestamp()
	doc.UploadedAt = fromTimestamp(ts)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, title, type, content, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.Title, string(doc.Type), doc.Content, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("add document: insert: %w", err)
	}

	return &doc, nil
}

// GetLatestDocument returns the most recently uploaded document of userID,
// or nil when the user has none.
func (s *Store) GetLatestDocument(ctx context.Context, userID string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, type, content, uploaded_at FROM documents
		 WHERE user_id = ? ORDER BY uploaded_at DESC, rowid DESC LIMIT 1`,
		userID,
	)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest document: %w", err)
	}
	return doc, nil
}

// GetDocument returns a single document owned by userID.
func (s *Store) GetDocument(ctx context.Context, userID, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, type, content, uploaded_at FROM documents WHERE user_id = ? AND id = ?`,
		userID, id,
	)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns the documents of userID, newest first.
func (s *Store) ListDocuments(ctx context.Context, userID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, type, content, uploaded_at FROM documents
		 WHERE user_id = ? ORDER BY uploaded_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("list documents: scan: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document owned by userID.
func (s *Store) DeleteDocument(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	var (
		doc     Document
		docType string
		ts      int64
	)
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Title, &docType, &doc.Content, &ts); err != nil {
		return nil, err
	}
	doc.Type = DocumentType(docType)
	doc.UploadedAt = fromTimestamp(ts)
	return &doc, nil
}
