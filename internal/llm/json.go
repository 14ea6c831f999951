package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned for blank model output.
var ErrEmptyResponse = errors.New("empty response")

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	if endIdx <= 1 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}

// DecodeJSON decodes an LLM response into a generic JSON value (object,
// array or scalar). Markdown code fences are stripped, and when the text
// wraps the JSON in prose the outermost object or array is tried.
func DecodeJSON(text string) (any, error) {
	text = StripCodeFence(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var v any
	err := json.Unmarshal([]byte(text), &v)
	if err == nil {
		return v, nil
	}

	if inner, ok := outermost(text); ok {
		if json.Unmarshal([]byte(inner), &v) == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("parsing LLM response as JSON: %w", err)
}

// ParseJSONResponse parses a JSON object response, returning nil if the
// response is not an object.
func ParseJSONResponse(text string) map[string]any {
	v, err := DecodeJSON(text)
	if err != nil {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

func outermost(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}
