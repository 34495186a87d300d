// Package enrich asks a chat-completion provider to rewrite the narrative
// parts of a match analysis and merges the answer onto the deterministic result.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	DefaultTimeout         = 30 * time.Second
	DefaultMaxPayloadBytes = 100 * 1024

	defaultMaxLogLength = 200
)

type Enricher struct {
	completer  ai.Completer
	logger     *zap.Logger
	maxLogLen  int
	timeout    time.Duration
	maxPayload int
}

type Option func(*Enricher)

// WithTimeout bounds a single enrichment call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxPayloadBytes caps the encoded request messages. Non-positive values
// keep the default.
func WithMaxPayloadBytes(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.maxPayload = n
		}
	}
}

func New(completer ai.Completer, logger *zap.Logger, maxLogLength int, opts ...Option) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	e := &Enricher{
		completer:  completer,
		logger:     logger,
		maxLogLen:  maxLogLength,
		timeout:    DefaultTimeout,
		maxPayload: DefaultMaxPayloadBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich requests a narrative for the pair. Every failure is returned as
// *ai.EnrichmentError so the caller can fall back to the deterministic result.
func (e *Enricher) Enrich(ctx context.Context, resumeText, jobText string, score int) (*Payload, error) {
	if e == nil || e.completer == nil {
		return nil, &ai.EnrichmentError{Kind: ai.KindUnavailable, Err: errors.New("no provider configured")}
	}

	prompt := BuildPrompt(resumeText, jobText, score)

	e.logger.Debug("enrichment request",
		zap.String("model", e.completer.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	messages := []ai.Message{{Role: ai.RoleUser, Content: prompt}}
	if err := e.checkPayload(messages); err != nil {
		return nil, ai.Classify(err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.completer.Complete(ctx, messages)
	if err != nil {
		return nil, ai.Classify(err)
	}

	e.logger.Debug("enrichment response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	payload, err := ParsePayload(raw)
	if err != nil {
		return nil, ai.Classify(err)
	}

	return payload, nil
}

// checkPayload rejects requests whose encoded messages exceed the ceiling,
// whatever provider would carry them.
func (e *Enricher) checkPayload(messages []ai.Message) error {
	body, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode enrichment request: %w", err)
	}
	if len(body) > e.maxPayload {
		return fmt.Errorf("%w: %d bytes exceeds %d", ai.ErrPayloadTooLarge, len(body), e.maxPayload)
	}
	return nil
}

func BuildPrompt(resumeText, jobText string, score int) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Score: {{MATCH_SCORE}}\n\nResume:\n{{RESUME}}\n\nJob description:\n{{JOB_DESCRIPTION}}\n\nJSON Response:"
	}

	replacer := strings.NewReplacer(
		"{{MATCH_SCORE}}", strconv.Itoa(score),
		"{{RESUME}}", strings.TrimSpace(resumeText),
		"{{JOB_DESCRIPTION}}", strings.TrimSpace(jobText),
	)
	return replacer.Replace(template)
}
