// Package countries maps free text to sets of ISO 3166-1 alpha-3 country codes.
//
// Matching is driven by a reference table of official names and aliases
// (demonyms, capitals, leaders, institutions). Names and mixed-case aliases
// match case-insensitively; all-caps aliases such as "US" or "PRC" match
// only in capitals so that ordinary words ("us") do not resolve.
package countries

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidReference is returned when the reference table is malformed.
var ErrInvalidReference = errors.New("invalid country reference data")

// Country is one row of the reference table.
type Country struct {
	ISO3    string   `json:"iso3"`
	Name    string   `json:"country_name"`
	Aliases []string `json:"aliases"`
}

type pattern struct {
	text          string
	iso3          string
	caseSensitive bool
}

// Resolver resolves country mentions. It is immutable after construction
// and safe for concurrent use.
type Resolver struct {
	entries  []Country
	byCode   map[string]Country
	byName   map[string]string
	patterns []pattern
}

// New builds a Resolver from reference entries. Empty tables, malformed
// codes, missing names and aliases claimed by two countries are rejected.
func New(entries []Country) (*Resolver, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidReference)
	}

	r := &Resolver{
		byCode: make(map[string]Country, len(entries)),
		byName: make(map[string]string),
	}

	for _, c := range entries {
		if !isISO3(c.ISO3) {
			return nil, fmt.Errorf("%w: bad code %q", ErrInvalidReference, c.ISO3)
		}
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("%w: %s has no name", ErrInvalidReference, c.ISO3)
		}
		if _, dup := r.byCode[c.ISO3]; dup {
			return nil, fmt.Errorf("%w: duplicate code %s", ErrInvalidReference, c.ISO3)
		}
		r.byCode[c.ISO3] = c
		r.entries = append(r.entries, c)

		for _, name := range append([]string{c.Name}, c.Aliases...) {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if owner, ok := r.byName[key]; ok && owner != c.ISO3 {
				return nil, fmt.Errorf("%w: %q claimed by %s and %s", ErrInvalidReference, name, owner, c.ISO3)
			}
			r.byName[key] = c.ISO3

			p := pattern{iso3: c.ISO3, caseSensitive: isAllCaps(name)}
			if p.caseSensitive {
				p.text = name
			} else {
				p.text = key
			}
			r.patterns = append(r.patterns, p)
		}
	}

	return r, nil
}

// MustNew is like New but panics on malformed data.
func MustNew(entries []Country) *Resolver {
	r, err := New(entries)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultResolver = MustNew(reference)

// Default returns the resolver built from the bundled reference table.
func Default() *Resolver {
	return defaultResolver
}

// Entries returns the reference rows in table order.
func (r *Resolver) Entries() []Country {
	out := make([]Country, len(r.entries))
	copy(out, r.entries)
	return out
}

// Name returns the official name for an ISO3 code, or "" if unknown.
func (r *Resolver) Name(iso3 string) string {
	return r.byCode[strings.ToUpper(iso3)].Name
}

// Known reports whether iso3 is in the reference table.
func (r *Resolver) Known(iso3 string) bool {
	_, ok := r.byCode[iso3]
	return ok
}

// Lookup resolves a single name, alias or ISO3 code.
func (r *Resolver) Lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if up := strings.ToUpper(name); len(name) == 3 {
		if _, ok := r.byCode[up]; ok {
			return up, true
		}
	}
	key := strings.ToLower(name)
	if code, ok := r.byName[key]; ok {
		return code, true
	}
	if trimmed, ok := strings.CutPrefix(key, "the "); ok {
		if code, ok := r.byName[trimmed]; ok {
			return code, true
		}
	}
	return "", false
}

type span struct {
	start, end int
	iso3       string
}

// Extract returns the sorted distinct ISO3 codes mentioned in text.
// When aliases overlap, the longest match wins, so "North Korean" yields
// PRK only and "People's Republic of China" does not also resolve Taiwan.
func (r *Resolver) Extract(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower, offsets := fold(text)

	var matches []span
	for _, p := range r.patterns {
		if p.caseSensitive {
			for _, start := range tokenMatches(text, p.text) {
				matches = append(matches, span{start: start, end: start + len(p.text), iso3: p.iso3})
			}
			continue
		}
		for _, start := range tokenMatches(lower, p.text) {
			matches = append(matches, span{start: offsets[start], end: offsets[start+len(p.text)], iso3: p.iso3})
		}
	}
	if len(matches) == 0 {
		return nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		li, lj := matches[i].end-matches[i].start, matches[j].end-matches[j].start
		if li != lj {
			return li > lj
		}
		return matches[i].start < matches[j].start
	})

	var accepted []span
	seen := make(map[string]struct{})
	for _, m := range matches {
		overlaps := false
		for _, a := range accepted {
			if m.start < a.end && a.start < m.end {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		accepted = append(accepted, m)
		seen[m.iso3] = struct{}{}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// fold lower-cases text rune by rune. offsets maps every byte of the result,
// plus its end, to the byte offset in text it came from, so spans found in
// the folded string can be compared with spans found in text. Invalid bytes
// are copied unchanged.
func fold(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(text[i])
			offsets = append(offsets, i)
			i++
			continue
		}
		n, _ := b.WriteRune(unicode.ToLower(r))
		for range n {
			offsets = append(offsets, i)
		}
		i += size
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

// tokenMatches returns the byte offsets of needle in haystack where the
// match is not embedded in a larger word.
func tokenMatches(haystack, needle string) []int {
	var out []int
	for offset := 0; offset < len(haystack); {
		i := strings.Index(haystack[offset:], needle)
		if i < 0 {
			break
		}
		start := offset + i
		end := start + len(needle)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			out = append(out, start)
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
	return out
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isISO3(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
