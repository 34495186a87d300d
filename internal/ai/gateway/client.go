// Package gateway talks to a JSON-over-HTTP chat-completion endpoint that
// answers in either OpenAI or Cohere v2 response shapes.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/utils"
)

const (
	ProviderName = "gateway"

	DefaultURL             = "https://api.cohere.com/v2/chat"
	DefaultModel           = "command-a-03-2025"
	DefaultTimeout         = 30 * time.Second
	DefaultMaxPayloadBytes = 100 * 1024

	maxErrorBodyBytes = 2048
	maxLogLength      = 200
)

type Config struct {
	URL               string
	Model             string
	APIKey            string
	Temperature       *float64
	Timeout           time.Duration
	MaxPayloadBytes   int
	RequestsPerSecond float64
}

// Client is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

type request struct {
	Model       string       `json:"model"`
	Messages    []ai.Message `json:"messages"`
	Stream      bool         `json:"stream"`
	Temperature *float64     `json:"temperature,omitempty"`
}

func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model = strings.TrimSpace(cfg.Model); cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gateway api key is required")
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Transport: &http.Transport{Proxy: http.ProxyFromEnvironment, ResponseHeaderTimeout: cfg.Timeout}},
		limiter: rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.WithCommonFields(c.logger, ProviderName, cfg.Model)

	return c, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.cfg.Model
}

// Complete sends a non-streaming request and returns the response text.
func (c *Client) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.do(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.wrapTransportErr(ctx, fmt.Errorf("read response body: %w", err))
	}

	parsed, err := ParseResponse(body)
	if err != nil {
		c.logger.Debug("unexpected gateway response",
			zap.String("response_preview", utils.TruncateForLog(string(body), maxLogLength)),
		)
		return "", err
	}

	c.logger.Debug("gateway completion response",
		zap.String("shape", parsed.Shape.String()),
		zap.Int("response_length", utf8.RuneCountInString(parsed.Text)),
		zap.String("response_preview", utils.TruncateForLog(parsed.Text, maxLogLength)),
	)

	return parsed.Text, nil
}

func (c *Client) do(ctx context.Context, messages []ai.Message, stream bool) (*http.Response, error) {
	if len(messages) == 0 {
		return nil, errors.New("at least one message is required")
	}

	payload, err := json.Marshal(request{
		Model:       c.cfg.Model,
		Messages:    messages,
		Stream:      stream,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}

	if len(payload) > c.cfg.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ai.ErrPayloadTooLarge, len(payload), c.cfg.MaxPayloadBytes)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.wrapTransportErr(ctx, fmt.Errorf("wait for rate limiter: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authorization(c.cfg.APIKey))
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	c.logger.Debug("gateway request",
		zap.Bool("stream", stream),
		zap.Int("messages", len(messages)),
		zap.Int("payload_bytes", len(payload)),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.wrapTransportErr(ctx, fmt.Errorf("send gateway request: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("%w: status %d: %s", ai.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return resp, nil
}

// wrapTransportErr tags deadline failures so callers can classify them.
func (c *Client) wrapTransportErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ai.ErrUpstreamTimeout, c.cfg.Timeout, err)
	}
	return err
}

func authorization(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(strings.ToLower(key), "bearer ") {
		return key
	}
	return "Bearer " + key
}
