// Package langdetect wraps a statistical language detector for use by
// feed algorithms that gate on the language a post is written in rather
// than the (often absent or wrong) langs field the author's client set.
package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detector identifies the most likely language of a short piece of text.
type Detector interface {
	// DetectLanguage returns the ISO 639-1 code of the most likely language
	// for text, and false if no language could be reliably detected (text
	// too short, or no confident match among the configured languages).
	DetectLanguage(text string) (code string, ok bool)
}

// linguaDetector adapts pemistahl/lingua-go to the Detector interface.
type linguaDetector struct {
	inner lingua.LanguageDetector
}

// NewDetector builds a Detector covering every language lingua-go ships
// with. Loading all language models costs memory proportional to the
// alphabet coverage; callers that only care about a handful of languages
// should build a narrower detector instead and wrap it the same way.
func NewDetector() Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.AllLanguages()...).
		Build()
	return &linguaDetector{inner: detector}
}

// NewDetectorForLanguages builds a Detector restricted to the given
// languages, which is both faster and more accurate than the unrestricted
// detector when the set of languages of interest is known up front.
func NewDetectorForLanguages(languages ...lingua.Language) Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()
	return &linguaDetector{inner: detector}
}

func (d *linguaDetector) DetectLanguage(text string) (string, bool) {
	lang, ok := d.inner.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
