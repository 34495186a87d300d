package gateway

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/spigell/resume-matcher/internal/ai"
)

// Shape identifies which provider format a response used.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeOpenAI
	ShapeCohere
)

func (s Shape) String() string {
	switch s {
	case ShapeOpenAI:
		return "openai"
	case ShapeCohere:
		return "cohere"
	default:
		return "unknown"
	}
}

// Response is the decoded completion text together with the shape it came in.
type Response struct {
	Shape Shape
	Text  string
}

const (
	openAITextPath = "choices.0.message.content"
	cohereTextPath = "message.content.0.text"
)

// ParseResponse tries the OpenAI shape first and the Cohere shape second.
func ParseResponse(body []byte) (Response, error) {
	if !gjson.ValidBytes(body) {
		return Response{}, fmt.Errorf("%w: body is not valid json", ai.ErrMalformedResponse)
	}

	if text := gjson.GetBytes(body, openAITextPath); text.Type == gjson.String && text.String() != "" {
		return Response{Shape: ShapeOpenAI, Text: text.String()}, nil
	}

	if text := gjson.GetBytes(body, cohereTextPath); text.Type == gjson.String && text.String() != "" {
		return Response{Shape: ShapeCohere, Text: text.String()}, nil
	}

	return Response{}, fmt.Errorf("%w: neither choices[0].message.content nor message.content[0].text present", ai.ErrMalformedResponse)
}
