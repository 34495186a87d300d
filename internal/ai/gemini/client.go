// Package gemini implements the chat-completion provider contract on top of
// the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/utils"
)

const (
	ProviderName = "gemini"

	defaultModel      = "gemini-2.5-flash"
	defaultMaxRetries = 3
	baseRetryDelay    = time.Second
	maxRetryDelay     = 30 * time.Second
	maxLogLength      = 200
)

var wait = utils.WaitFor

var retryAfterRe = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Generator wraps the Google GenAI client and satisfies ai.Provider.
type Generator struct {
	models      modelsAPI
	model       string
	temperature *float32
	maxRetries  int
	logger      *zap.Logger
}

type Config struct {
	APIKey      string
	Model       string
	Temperature *float64
	MaxRetries  int
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg, log), nil
}

func newGenerator(models modelsAPI, cfg Config, log *zap.Logger) *Generator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	var temperature *float32
	if cfg.Temperature != nil {
		t := float32(*cfg.Temperature)
		temperature = &t
	}

	return &Generator{
		models:      models,
		model:       model,
		temperature: temperature,
		maxRetries:  retries,
		logger:      logger.WithCommonFields(log, ProviderName, model),
	}
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Complete sends the conversation and returns the textual response.
func (g *Generator) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	contents, config, err := g.buildRequest(messages)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			output := responseText(resp)
			if output == "" {
				return "", fmt.Errorf("%w: gemini api returned empty response", ai.ErrMalformedResponse)
			}
			g.logger.Debug("gemini generate content response",
				zap.Int("attempt", attempt),
				zap.String("response_preview", utils.TruncateForLog(output, maxLogLength)),
			)
			return output, nil
		}

		lastErr = err
		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			break
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
	}

	return "", classify(fmt.Errorf("generate content: %w", lastErr))
}

// Stream relays streamed text parts to onChunk. Streams are not retried.
func (g *Generator) Stream(ctx context.Context, messages []ai.Message, onChunk func(string)) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	contents, config, err := g.buildRequest(messages)
	if err != nil {
		return "", err
	}

	var full strings.Builder
	for resp, err := range g.models.GenerateContentStream(ctx, g.model, contents, config) {
		if err != nil {
			return full.String(), classify(fmt.Errorf("stream content: %w", err))
		}
		for _, text := range partTexts(resp) {
			full.WriteString(text)
			if onChunk != nil {
				onChunk(text)
			}
		}
	}

	return full.String(), nil
}

// buildRequest maps system messages onto the system instruction and
// assistant turns onto the model role.
func (g *Generator) buildRequest(messages []ai.Message) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{Temperature: g.temperature}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		switch m.Role {
		case ai.RoleSystem:
			system = append(system, text)
		case ai.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}
	}

	if len(contents) == 0 {
		return nil, nil, errors.New("prompt must not be empty")
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	return contents, config, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	return strings.TrimSpace(strings.Join(partTexts(resp), ""))
}

func partTexts(resp *genai.GenerateContentResponse) []string {
	if resp == nil {
		return nil
	}

	var out []string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" || part.Thought {
				continue
			}
			out = append(out, part.Text)
		}
	}
	return out
}

// retryDelay reports whether err is temporary and how long to back off.
// Quota errors asking for a longer pause than maxRetryDelay are not retried.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if m := retryAfterRe.FindStringSubmatch(apiErr.Message); m != nil {
			secs, perr := strconv.ParseFloat(m[1], 64)
			if perr == nil {
				d := time.Duration(secs * float64(time.Second))
				return d, d <= maxRetryDelay
			}
		}
	case apiErr.Code >= http.StatusInternalServerError:
	default:
		return 0, false
	}

	return baseRetryDelay * time.Duration(1<<(attempt-1)), true
}

func classify(err error) error {
	var apiErr genai.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ai.ErrUpstreamTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.As(err, &apiErr):
		return fmt.Errorf("%w: %w", ai.ErrUpstreamUnavailable, err)
	default:
		return err
	}
}
