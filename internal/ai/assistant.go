// Package ai defines the provider-neutral contract used to talk to chat-completion backends.
package ai

import (
	"context"
	"errors"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer performs a single non-streaming completion.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Model() string
}

// Streamer performs a streaming completion. onChunk is called for every
// non-empty text fragment in receipt order; the concatenated text is returned.
type Streamer interface {
	Stream(ctx context.Context, messages []Message, onChunk func(string)) (string, error)
}

// Provider is a backend that supports both modes.
type Provider interface {
	Completer
	Streamer
}

var (
	ErrPayloadTooLarge     = errors.New("request payload exceeds size limit")
	ErrMalformedResponse   = errors.New("malformed provider response")
	ErrUpstreamTimeout     = errors.New("provider request timed out")
	ErrUpstreamUnavailable = errors.New("provider unavailable")
)

// ErrorKind classifies why an enrichment attempt failed.
type ErrorKind string

const (
	KindTimeout         ErrorKind = "timeout"
	KindMalformed       ErrorKind = "malformed"
	KindPayloadTooLarge ErrorKind = "payload_too_large"
	KindUnavailable     ErrorKind = "unavailable"
	KindCanceled        ErrorKind = "canceled"
)

// EnrichmentError wraps any failure on the narrative enrichment path.
type EnrichmentError struct {
	Kind ErrorKind
	Err  error
}

func (e *EnrichmentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("enrichment failed (%s)", e.Kind)
	}
	return fmt.Sprintf("enrichment failed (%s): %v", e.Kind, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// Classify maps err onto an EnrichmentError. Errors that are already
// classified are returned unchanged.
func Classify(err error) *EnrichmentError {
	if err == nil {
		return nil
	}

	var ee *EnrichmentError
	if errors.As(err, &ee) {
		return ee
	}

	kind := KindUnavailable
	switch {
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	case errors.Is(err, ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, ErrPayloadTooLarge):
		kind = KindPayloadTooLarge
	case errors.Is(err, ErrMalformedResponse):
		kind = KindMalformed
	}

	return &EnrichmentError{Kind: kind, Err: err}
}
