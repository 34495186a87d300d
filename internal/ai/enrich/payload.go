package enrich

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/resume-matcher/internal/ai"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaLoader = gojsonschema.NewStringLoader(schemaJSON)
	fenceRe      = regexp.MustCompile("(?m)^```(?:json)?|```$")
	objectRe     = regexp.MustCompile(`\{[\s\S]*\}`)
)

// Item is a keyword or skill entry. Providers use either "word" or "name".
type Item struct {
	Word     string `json:"word"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (i Item) Label() string {
	if w := strings.TrimSpace(i.Word); w != "" {
		return w
	}
	return strings.TrimSpace(i.Name)
}

// Payload is the narrative a provider returns for one analysis. Nil slices
// mean the provider omitted the field.
type Payload struct {
	Name                   string   `json:"name"`
	Role                   string   `json:"role"`
	JobKeywords            []Item   `json:"jobKeywords"`
	JobSkills              []Item   `json:"jobSkills"`
	MissingSkills          []string `json:"missingSkills"`
	MissingExperience      []string `json:"missingExperience"`
	Summary                string   `json:"summary"`
	ImprovementSuggestions []string `json:"improvementSuggestions"`
	WhatMattersMost        string   `json:"whatMattersMost"`
}

// ParsePayload extracts and validates the JSON object embedded in raw.
func ParsePayload(raw string) (*Payload, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: no json object in response", ai.ErrMalformedResponse)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("%w: schema violation: %s", ai.ErrMalformedResponse, strings.Join(msgs, "; "))
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}

	var payload Payload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &payload,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       stringToItemHook,
	})
	if err != nil {
		return nil, fmt.Errorf("create payload decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ai.ErrMalformedResponse, err)
	}

	payload.trim()
	return &payload, nil
}

// extractJSON drops Markdown fences and returns the outermost {...} span.
func extractJSON(raw string) string {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
	return objectRe.FindString(cleaned)
}

func stringToItemHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(Item{}) {
		return data, nil
	}
	return map[string]any{"word": data}, nil
}

func (p *Payload) trim() {
	p.Name = strings.TrimSpace(p.Name)
	p.Role = strings.TrimSpace(p.Role)
	p.Summary = strings.TrimSpace(p.Summary)
	p.WhatMattersMost = strings.TrimSpace(p.WhatMattersMost)
	p.MissingSkills = compact(p.MissingSkills)
	p.MissingExperience = compact(p.MissingExperience)
	p.ImprovementSuggestions = compact(p.ImprovementSuggestions)
}

// compact trims entries and drops blanks, keeping nil as nil.
func compact(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
