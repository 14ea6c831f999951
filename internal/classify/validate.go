package classify

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/TobiSchelling/geomonitor/internal/taxonomy"
)

// ErrRejected marks a candidate that failed validation.
var ErrRejected = errors.New("event rejected")

const (
	maxSummaryChars = 400
	minSentiment    = -10
	maxSentiment    = 10
)

// Lookup resolves a country name, alias or code to ISO3.
type Lookup interface {
	Lookup(name string) (string, bool)
}

// Actor is one role assignment.
type Actor struct {
	ISO3 string `json:"actor_iso3"`
	Role string `json:"actor_role"`
}

// Event is a validated event ready to be stored.
type Event struct {
	Summary      string   `json:"event_summary"`
	Date         *string  `json:"event_date"`
	Location     *string  `json:"event_location"`
	Type         *string  `json:"event_type"`
	Dimension    string   `json:"dimension"`
	SubDimension *string  `json:"sub_dimension"`
	Direction    string   `json:"direction"`
	Sentiment    float64  `json:"sentiment"`
	Confidence   *float64 `json:"confidence_level"`
	Actors       []Actor  `json:"actors"`
}

// Countries returns the distinct ISO3 codes across all roles.
func (e Event) Countries() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range e.Actors {
		if _, ok := seen[a.ISO3]; !ok {
			seen[a.ISO3] = struct{}{}
			out = append(out, a.ISO3)
		}
	}
	sort.Strings(out)
	return out
}

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

// Validate turns a candidate into an Event. It is a pure function of its
// inputs.
//
//   - sentiment must be numeric and is clamped to [-10, 10]
//   - confidence is optional, clamped to [0, 1], dropped when non-numeric
//   - dimension must name one of the four dimensions
//   - a sub-dimension outside the dimension's set is stored as NULL
//   - at least one actor must resolve to a country code
//   - a missing or invalid direction is derived from the actors
func Validate(c Candidate, lookup Lookup) (Event, error) {
	if c == nil {
		return Event{}, rejectf("not an object")
	}

	var ev Event

	dimension, ok := taxonomy.CanonicalDimension(str(c["dimension"]))
	if !ok {
		return Event{}, rejectf("unknown dimension %q", str(c["dimension"]))
	}
	ev.Dimension = dimension
	if sub, ok := taxonomy.CanonicalSubDimension(dimension, str(c["sub_dimension"])); ok {
		ev.SubDimension = &sub
	}

	sentiment, ok := number(c["sentiment"])
	if !ok {
		return Event{}, rejectf("sentiment %v is not numeric", c["sentiment"])
	}
	ev.Sentiment = clamp(sentiment, minSentiment, maxSentiment)

	conf, ok := number(c["confidence_level"])
	if !ok {
		conf, ok = number(c["confidence"])
	}
	if ok {
		conf = clamp(conf, 0, 1)
		ev.Confidence = &conf
	}

	for _, role := range taxonomy.Roles {
		for _, code := range resolveActors(c[role], lookup) {
			ev.Actors = append(ev.Actors, Actor{ISO3: code, Role: role})
		}
	}
	if len(ev.Actors) == 0 {
		return Event{}, rejectf("no resolvable actors")
	}

	direction := strings.ToLower(strings.TrimSpace(str(c["direction"])))
	if !taxonomy.ValidDirection(direction) {
		direction = deriveDirection(ev.Actors)
	}
	ev.Direction = direction

	ev.Summary = truncate(strings.TrimSpace(str(c["event_summary"])), maxSummaryChars)
	if d := strings.TrimSpace(str(c["event_date"])); d != "" {
		if _, err := time.Parse("2006-01-02", d); err == nil {
			ev.Date = &d
		}
	}
	ev.Location = optional(c["event_location"])
	ev.Type = optional(c["event_type"])

	return ev, nil
}

// deriveDirection infers a direction from the actor roles: one country is
// unilateral, two countries on opposite sides are bilateral, three or more
// are multilateral.
func deriveDirection(actors []Actor) string {
	countries := make(map[string]struct{})
	var side1, side2 bool
	for _, a := range actors {
		countries[a.ISO3] = struct{}{}
		switch a.Role {
		case taxonomy.RoleActor1, taxonomy.RoleActor1Secondary:
			side1 = true
		case taxonomy.RoleActor2, taxonomy.RoleActor2Secondary:
			side2 = true
		}
	}
	switch {
	case len(countries) >= 3:
		return taxonomy.Multilateral
	case len(countries) == 2 && side1 && side2:
		return taxonomy.Bilateral
	default:
		return taxonomy.Unilateral
	}
}

// resolveActors accepts a string ("USA, CHN" or "United States") or a list
// of strings and returns distinct ISO3 codes in input order.
func resolveActors(v any, lookup Lookup) []string {
	var names []string
	switch val := v.(type) {
	case string:
		names = splitNames(val)
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				names = append(names, splitNames(s)...)
			}
		}
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(code string) {
		if _, dup := seen[code]; !dup {
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}

	for _, name := range names {
		if code, ok := resolveOne(name, lookup); ok {
			add(code)
			continue
		}
		// "USA CHN" style lists separated only by spaces
		for _, tok := range strings.Fields(name) {
			if lookup != nil {
				if code, ok := lookup.Lookup(tok); ok {
					add(code)
					continue
				}
			}
			if len(tok) == 3 && isAlpha(tok) && strings.ToUpper(tok) == tok {
				add(tok)
			}
		}
	}
	return out
}

func resolveOne(name string, lookup Lookup) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if lookup != nil {
		if code, ok := lookup.Lookup(name); ok {
			return code, true
		}
	}
	if utf8.RuneCountInString(name) == 3 && isAlpha(name) {
		return strings.ToUpper(name), true
	}
	return "", false
}

func splitNames(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '/' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func optional(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
