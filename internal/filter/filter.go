// Package filter decides whether an article is international-relations
// content worth classifying.
package filter

import (
	"sort"
	"strings"
	"unicode"

	"github.com/TobiSchelling/geomonitor/internal/countries"
)

// DefaultMinCountries is the distinct-country threshold for admission.
const DefaultMinCountries = 2

// DefaultKeywords is the built-in international-relations vocabulary.
var DefaultKeywords = []string{
	"diplomacy", "trade", "military", "sanctions", "united nations", "nato",
	"g7", "g20", "security", "foreign", "territorial", "rights", "conference",
	"international", "law", "peace", "cooperation", "border", "visa",
	"immigration", "refugee", "terrorism", "nuclear", "climate", "dispute",
	"maritime", "cybersecurity", "global", "economy", "humanitarian", "aid",
	"war", "defense", "court", "conflict", "embassy", "budget", "envoy",
	"mediation", "resolution", "finance", "development", "change", "crisis",
	"relief", "control", "regional", "alliance", "negotiation", "peacekeeping",
	"multilateral", "treaty", "agreement", "summit", "sanction", "embargo",
	"bilateral", "trilateral", "tariff", "minister", "ambassador",
}

// Details reports every admission criterion independently.
type Details struct {
	KeywordsFound  []string `json:"keywords_found"`
	CountriesFound []string `json:"countries_found"`
	KeywordPass    bool     `json:"keyword_pass"`
	CountryPass    bool     `json:"country_pass"`
}

// Filter is the admission gate. It is safe for concurrent use.
type Filter struct {
	resolver     *countries.Resolver
	keywords     [][]string
	labels       []string
	minCountries int
}

// Option configures a Filter.
type Option func(*Filter)

// WithMinCountries overrides the distinct-country threshold.
func WithMinCountries(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.minCountries = n
		}
	}
}

// WithKeywords replaces the keyword list. An empty list keeps the default.
func WithKeywords(keywords []string) Option {
	return func(f *Filter) {
		if len(keywords) > 0 {
			f.setKeywords(keywords)
		}
	}
}

// New creates a Filter backed by resolver.
func New(resolver *countries.Resolver, opts ...Option) *Filter {
	f := &Filter{resolver: resolver, minCountries: DefaultMinCountries}
	f.setKeywords(DefaultKeywords)
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Filter) setKeywords(keywords []string) {
	f.keywords = f.keywords[:0]
	f.labels = f.labels[:0]
	seen := make(map[string]struct{})
	for _, k := range keywords {
		label := strings.ToLower(strings.TrimSpace(k))
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		f.labels = append(f.labels, label)
		f.keywords = append(f.keywords, tokenize(label))
	}
}

// Admit runs both criteria on title and text. The article is admitted only
// when at least one keyword is present and the resolver finds at least
// MinCountries distinct countries.
func (f *Filter) Admit(text, title string) (bool, Details) {
	combined := strings.TrimSpace(title + " " + text)
	tokens := tokenize(combined)

	var found []string
	for i, kw := range f.keywords {
		if containsSequence(tokens, kw) {
			found = append(found, f.labels[i])
		}
	}
	sort.Strings(found)

	codes := f.resolver.Extract(combined)

	d := Details{
		KeywordsFound:  found,
		CountriesFound: codes,
		KeywordPass:    len(found) > 0,
		CountryPass:    len(codes) >= f.minCountries,
	}
	if d.KeywordsFound == nil {
		d.KeywordsFound = []string{}
	}
	if d.CountriesFound == nil {
		d.CountriesFound = []string{}
	}
	return d.KeywordPass && d.CountryPass, d
}

// MinCountries returns the configured threshold.
func (f *Filter) MinCountries() int {
	return f.minCountries
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsSequence(tokens, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(seq) <= len(tokens); i++ {
		for j := range seq {
			if tokens[i+j] != seq[j] {
				continue outer
			}
		}
		return true
	}
	return false
}
