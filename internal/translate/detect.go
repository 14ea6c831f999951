package translate

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// TrigramDetector detects languages with whatlanggo's trigram model.
type TrigramDetector struct{}

// Detect implements Detector.
func (TrigramDetector) Detect(text string) (Detection, error) {
	if strings.TrimSpace(text) == "" {
		return Detection{}, errors.New("empty text")
	}
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		code = info.Lang.Iso6393()
	}
	if code == "" {
		return Detection{}, errors.New("unrecognized language")
	}
	return Detection{Language: code, Reliable: info.IsReliable()}, nil
}
