package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"trygo/models"
)

// GeneratedContent is the structured result of a generation call.
type GeneratedContent struct {
	Title                string
	Outline              string
	Body                 string
	SuggestedImagePrompt string
}

var fenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ResponseParser turns raw LLM completions into GeneratedContent. It tries a
// strict JSON parse first and falls back once to lenient structural
// extraction; after that the operation fails with a ParseError and nothing
// is persisted.
type ResponseParser struct {
	Logger *zap.Logger
}

// NewResponseParser creates a new parser.
func NewResponseParser(logger *zap.Logger) *ResponseParser {
	return &ResponseParser{Logger: logger}
}

// Parse interprets a raw completion.
func (p *ResponseParser) Parse(raw string) (*GeneratedContent, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &models.ParseError{Message: "generation response is empty"}
	}

	if gen := p.parseJSON(text); gen != nil {
		return gen, nil
	}

	// Fallback 1a: the model wrapped its JSON in a code fence.
	if m := fenceRegex.FindStringSubmatch(text); m != nil {
		if gen := p.parseJSON(strings.TrimSpace(m[1])); gen != nil {
			p.Logger.Debug("Generation response recovered from code fence")
			return gen, nil
		}
	}

	// Fallback 1b: JSON object embedded in surrounding prose.
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if gen := p.parseJSON(text[start : end+1]); gen != nil {
			p.Logger.Debug("Generation response recovered from embedded object")
			return gen, nil
		}
	}

	// A response that claims to be JSON but cannot be repaired is junk; free
	// text extraction would persist brace soup as article body.
	if strings.HasPrefix(text, "{") {
		return nil, &models.ParseError{Message: "generation response is malformed JSON"}
	}

	// Fallback 2: tolerant extraction from free text.
	if gen := p.parseFreeText(text); gen != nil {
		p.Logger.Debug("Generation response recovered from free text")
		return gen, nil
	}

	return nil, &models.ParseError{Message: "generation response could not be interpreted"}
}

func (p *ResponseParser) parseJSON(candidate string) *GeneratedContent {
	var raw map[string]any
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil
	}
	gen := &GeneratedContent{
		Title:                coerceText(raw["title"]),
		Outline:              coerceText(raw["outline"]),
		Body:                 coerceText(raw["body"]),
		SuggestedImagePrompt: coerceText(raw["suggestedImagePrompt"]),
	}
	if gen.Body == "" {
		gen.Body = coerceText(raw["content"])
	}
	if gen.Body == "" {
		return nil
	}
	return gen
}

// parseFreeText treats the completion as a markdown article: first heading
// (or first line) becomes the title, everything after it the body.
func (p *ResponseParser) parseFreeText(text string) *GeneratedContent {
	lines := strings.Split(text, "\n")
	gen := &GeneratedContent{}
	bodyStart := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		gen.Title = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		bodyStart = i + 1
		break
	}
	gen.Body = strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
	if gen.Title == "" || gen.Body == "" {
		return nil
	}
	return gen
}

// coerceText accepts the value shapes models actually produce for a field:
// a string, a list of strings/sections, or a nested object rendered back to
// JSON.
func coerceText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := coerceText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}
