package gateway

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
)

const (
	eventContentDelta = "content-delta"
	eventMessageEnd   = "message-end"

	dataPrefix  = "data:"
	doneMarker  = "[DONE]"
	maxLineSize = 1 << 20
)

// Stream sends a streaming request and relays text fragments to onChunk.
// The full concatenated text is returned once the stream ends.
func (c *Client) Stream(ctx context.Context, messages []ai.Message, onChunk func(string)) (string, error) {
	resp, err := c.do(ctx, messages, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	text, err := readEvents(resp.Body, onChunk)
	if err != nil {
		return text, c.wrapTransportErr(ctx, fmt.Errorf("read gateway stream: %w", err))
	}

	c.logger.Debug("gateway stream finished", zap.Int("response_length", len(text)))
	return text, nil
}

// readEvents consumes server-sent events until message-end, [DONE] or EOF.
// Lines that are not data lines or do not parse are skipped.
func readEvents(r io.Reader, onChunk func(string)) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var full strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if data == doneMarker {
			return full.String(), nil
		}
		if !gjson.Valid(data) {
			continue
		}

		text, end := decodeEvent(data)
		if text != "" {
			full.WriteString(text)
			if onChunk != nil {
				onChunk(text)
			}
		}
		if end {
			return full.String(), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return full.String(), err
	}
	return full.String(), nil
}

func decodeEvent(data string) (text string, end bool) {
	switch gjson.Get(data, "type").String() {
	case eventContentDelta:
		return gjson.Get(data, "delta.message.content.text").String(), false
	case eventMessageEnd:
		return "", true
	}

	// OpenAI-style chunk.
	choice := gjson.Get(data, "choices.0")
	if !choice.Exists() {
		return "", false
	}
	return choice.Get("delta.content").String(), choice.Get("finish_reason").String() != ""
}
