// Package language adapts trigram-based language detection for the
// classifier's wrong-language check.
package language

import (
	"github.com/abadojack/whatlanggo"

	"github.com/alexjc/weboptout/internal/ports"
)

// Detector guesses document languages.
type Detector struct{}

var _ ports.LanguageDetector = Detector{}

// Detect returns the ISO 639-3 code of the most likely language. reliable
// is false when the guess is too uncertain to act on.
func (Detector) Detect(text string) (string, bool) {
	info := whatlanggo.Detect(text)
	if info.Lang == -1 {
		return "", false
	}
	return whatlanggo.LangToString(info.Lang), info.IsReliable()
}
