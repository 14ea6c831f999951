package classify

import (
	"errors"
	"fmt"

	"github.com/TobiSchelling/geomonitor/internal/llm"
)

// ErrParse marks a model response that could not be read as events.
var ErrParse = errors.New("classification parse error")

// ParseError carries the raw response alongside the reason it was rejected.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("classification parse error: %s", e.Reason)
}

// Is makes errors.Is(err, ErrParse) hold for every ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Candidate is one unvalidated event object from the model.
type Candidate map[string]any

// ParseResult is the tagged outcome of parsing a model response: either OK
// with zero or more candidates, or not OK with a reason.
type ParseResult struct {
	OK         bool
	Candidates []Candidate
	Raw        string
	Reason     string
}

// Err returns a *ParseError for failed results and nil otherwise.
func (p ParseResult) Err() error {
	if p.OK {
		return nil
	}
	return &ParseError{Raw: p.Raw, Reason: p.Reason}
}

// Parse reads a model response. Accepted shapes are an array of events, an
// object with an "events" array, a single event object, and an empty
// object meaning no events. Code fences and surrounding prose are tolerated.
func Parse(raw string) ParseResult {
	v, err := llm.DecodeJSON(raw)
	if err != nil {
		return ParseResult{Raw: raw, Reason: err.Error()}
	}

	switch val := v.(type) {
	case []any:
		return ParseResult{OK: true, Candidates: toCandidates(val), Raw: raw}
	case map[string]any:
		if events, ok := val["events"]; ok {
			if events == nil {
				return ParseResult{OK: true, Raw: raw}
			}
			arr, ok := events.([]any)
			if !ok {
				return ParseResult{Raw: raw, Reason: "\"events\" is not an array"}
			}
			return ParseResult{OK: true, Candidates: toCandidates(arr), Raw: raw}
		}
		if len(val) == 0 {
			return ParseResult{OK: true, Raw: raw}
		}
		if looksLikeEvent(val) {
			return ParseResult{OK: true, Candidates: []Candidate{Candidate(val)}, Raw: raw}
		}
		return ParseResult{Raw: raw, Reason: "unrecognized object shape"}
	default:
		return ParseResult{Raw: raw, Reason: fmt.Sprintf("unexpected JSON %T", v)}
	}
}

func toCandidates(arr []any) []Candidate {
	out := make([]Candidate, 0, len(arr))
	for _, item := range arr {
		m, _ := item.(map[string]any)
		out = append(out, Candidate(m))
	}
	return out
}

func looksLikeEvent(m map[string]any) bool {
	for _, k := range []string{"dimension", "event_summary", "actor1", "sentiment"} {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
