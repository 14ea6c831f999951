// Package translate normalizes article text into a single working language.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrUnavailable reports that text could not be brought into the working
// language: detection failed, the language is unsupported, or the
// translation service errored or timed out.
var ErrUnavailable = errors.New("translation unavailable")

const (
	// DefaultMaxChunkChars bounds the size of one translation request.
	DefaultMaxChunkChars = 500
	// DefaultTarget is the working language.
	DefaultTarget = "en"
	// detectSampleChars is how much text the detector sees.
	detectSampleChars = 2000
	// Undetermined is recorded when there is no text to detect.
	Undetermined = "und"
)

// SupportedLanguages lists the source languages the adapter will send to
// the translation service.
var SupportedLanguages = map[string]string{
	"af": "Afrikaans", "ar": "Arabic", "bg": "Bulgarian", "bn": "Bengali",
	"cs": "Czech", "da": "Danish", "de": "German", "en": "English",
	"es": "Spanish", "et": "Estonian", "fa": "Persian", "fi": "Finnish",
	"fr": "French", "he": "Hebrew", "hi": "Hindi", "hr": "Croatian",
	"hu": "Hungarian", "id": "Indonesian", "it": "Italian", "ja": "Japanese",
	"ka": "Georgian", "ko": "Korean", "lt": "Lithuanian", "lv": "Latvian",
	"mk": "Macedonian", "ms": "Malay", "nl": "Dutch", "no": "Norwegian",
	"pl": "Polish", "pt": "Portuguese", "ro": "Romanian", "ru": "Russian",
	"sk": "Slovak", "sl": "Slovenian", "sq": "Albanian", "sv": "Swedish",
	"sw": "Swahili", "th": "Thai", "tl": "Tagalog", "tr": "Turkish",
	"uk": "Ukrainian", "ur": "Urdu", "vi": "Vietnamese", "zh": "Chinese",
}

// Detection is the outcome of language detection.
type Detection struct {
	Language string
	Reliable bool
}

// Detector identifies the language of a text sample.
type Detector interface {
	Detect(text string) (Detection, error)
}

// Translator sends one chunk of text to a translation service.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Result is the normalized article text.
type Result struct {
	Text             string
	Title            string
	DetectedLanguage string
	WasTranslated    bool
}

// Adapter detects, chunks and translates article text.
type Adapter struct {
	detector      Detector
	translator    Translator
	target        string
	maxChunkChars int
	timeout       time.Duration
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTarget sets the working language.
func WithTarget(lang string) Option {
	return func(a *Adapter) {
		if lang != "" {
			a.target = normalizeCode(lang)
		}
	}
}

// WithMaxChunkChars sets the maximum characters per translation request.
func WithMaxChunkChars(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxChunkChars = n
		}
	}
}

// WithTimeout bounds every call to the translation service.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAdapter creates an Adapter. translator may be nil, in which case any
// text outside the working language is reported as unavailable.
func NewAdapter(detector Detector, translator Translator, opts ...Option) *Adapter {
	a := &Adapter{
		detector:      detector,
		translator:    translator,
		target:        DefaultTarget,
		maxChunkChars: DefaultMaxChunkChars,
		timeout:       30 * time.Second,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Target returns the working language.
func (a *Adapter) Target() string {
	return a.target
}

// Normalize returns text and title in the working language. hint is an
// optional language tag from the source page, used when detection is not
// reliable. On failure the returned Result still carries the original text
// and whatever language was detected, and the error wraps ErrUnavailable.
func (a *Adapter) Normalize(ctx context.Context, text, title, hint string) (Result, error) {
	res := Result{Text: text, Title: title}

	sample := text
	if strings.TrimSpace(sample) == "" {
		sample = title
	}
	if strings.TrimSpace(sample) == "" {
		res.DetectedLanguage = Undetermined
		return res, nil
	}

	lang, err := a.detect(truncateRunes(sample, detectSampleChars), hint)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	res.DetectedLanguage = lang

	if lang == a.target {
		return res, nil
	}
	if _, ok := SupportedLanguages[lang]; !ok {
		return res, fmt.Errorf("%w: unsupported language %q", ErrUnavailable, lang)
	}
	if a.translator == nil {
		return res, fmt.Errorf("%w: no translation service configured", ErrUnavailable)
	}

	body, err := a.translateText(ctx, text, lang)
	if err != nil {
		return res, err
	}
	heading, err := a.translateText(ctx, title, lang)
	if err != nil {
		return res, err
	}

	return Result{Text: body, Title: heading, DetectedLanguage: lang, WasTranslated: true}, nil
}

func (a *Adapter) detect(sample, hint string) (string, error) {
	if a.detector == nil {
		if hint != "" {
			return normalizeCode(hint), nil
		}
		return "", errors.New("no language detector configured")
	}
	d, err := a.detector.Detect(sample)
	if err != nil {
		if hint != "" {
			return normalizeCode(hint), nil
		}
		return "", fmt.Errorf("detecting language: %w", err)
	}
	if !d.Reliable && hint != "" {
		return normalizeCode(hint), nil
	}
	if d.Language == "" {
		return "", errors.New("language could not be determined")
	}
	return normalizeCode(d.Language), nil
}

// translateText translates text paragraph by paragraph so that blank-line
// breaks survive. Chunks never span paragraphs.
func (a *Adapter) translateText(ctx context.Context, text, source string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	paragraphs := Paragraphs(text)
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		chunks := Chunk(p, a.maxChunkChars)
		translated := make([]string, 0, len(chunks))
		for i, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			t, err := a.translator.Translate(callCtx, chunk, source, a.target)
			cancel()
			if err != nil {
				return "", fmt.Errorf("%w: chunk %d/%d: %v", ErrUnavailable, i+1, len(chunks), err)
			}
			translated = append(translated, strings.TrimSpace(t))
		}
		out = append(out, strings.Join(translated, " "))
	}
	return strings.Join(out, "\n\n"), nil
}

// normalizeCode reduces a language tag such as "fr-FR" or "zh_CN" to its
// primary subtag.
func normalizeCode(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return tag
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
