// Package classify decides whether a document's text constitutes an opt-out
// reservation, using ranked pattern matching over extracted paragraphs.
package classify

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alexjc/weboptout/internal/domain"
	"github.com/alexjc/weboptout/internal/htmltext"
	"github.com/alexjc/weboptout/internal/patterns"
	"github.com/alexjc/weboptout/internal/ports"
)

const englishISO3 = "eng"

// Thresholds tune the classifier's decision sequence.
type Thresholds struct {
	// LanguageCheckLength is the minimum text size before language detection
	// is trusted at all.
	LanguageCheckLength int
	// ShortTextLength marks documents below it as candidates for the
	// rendering fallback.
	ShortTextLength int
	// MinLegalWords is the vocabulary-hit floor under which a document does
	// not read as legal text.
	MinLegalWords int
	// MaxExcerptLength caps the size of highlighted excerpts.
	MaxExcerptLength int
}

// DefaultThresholds returns the tuned production values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LanguageCheckLength: 1000,
		ShortTextLength:     2000,
		MinLegalWords:       36,
		MaxExcerptLength:    512,
	}
}

// Classifier turns one document into a classification status plus audit and
// outcome entries.
type Classifier struct {
	thresholds Thresholds
	detector   ports.LanguageDetector
	logger     *slog.Logger
}

// New wires the classifier; a nil detector disables the language check.
func New(thresholds Thresholds, detector ports.LanguageDetector, logger *slog.Logger) *Classifier {
	if thresholds.MaxExcerptLength <= 0 {
		thresholds = DefaultThresholds()
	}
	return &Classifier{thresholds: thresholds, detector: detector, logger: logger}
}

// Check classifies the document at url. It returns SUCCESS when an opt-out
// or not-for-profit reservation is found (with the matches as outcome),
// RETRY when the static fetch looks incomplete, FAILURE when the document is
// not legal text, and ABORT when further attempts on this domain are
// pointless. Every decision appends an audit record to trail.
func (c *Classifier) Check(url, rawHTML string, trail *domain.Trail) (domain.Status, []domain.Match) {
	text := c.extractText(url, rawHTML, trail)
	paraCount := strings.Count(text, "\n") + 1

	if len(text) > c.thresholds.LanguageCheckLength && c.detector != nil {
		if lang, reliable := c.detector.Detect(text); reliable && lang != englishISO3 {
			c.debug("rejecting non-English document", "url", url, "language", lang)
			trail.Log(domain.StatusFailure, domain.StepValidateTextLanguage, domain.Context{
				"language": strings.ToUpper(lang),
				"url":      url,
			})
			return domain.StatusAbort, nil
		}
	}

	if matches := RankedMatches(patterns.TDMConcepts, text, c.thresholds.MaxExcerptLength); len(matches) > 0 {
		c.debug("opt-out language matched", "url", url, "matches", len(matches))
		trail.Log(domain.StatusSuccess, domain.StepMatchTermsInclusion, domain.Context{
			"matches":    len(matches),
			"paragraphs": paraCount,
			"highlight":  matches[0].Excerpt,
			"paragraph":  matches[0].Paragraph,
		})
		return domain.StatusSuccess, matches
	}

	if matches := RankedMatches(patterns.NFPConcepts, text, c.thresholds.MaxExcerptLength); len(matches) > 0 {
		c.debug("not-for-profit restriction matched", "url", url, "matches", len(matches))
		trail.Log(domain.StatusSuccess, domain.StepMatchTermsInclusion, domain.Context{
			"category":   "not-for-profit",
			"matches":    len(matches),
			"paragraphs": paraCount,
			"highlight":  matches[0].Excerpt,
			"paragraph":  matches[0].Paragraph,
		})
		return domain.StatusSuccess, matches
	}

	if len(text) < c.thresholds.ShortTextLength {
		c.debug("document too short, requesting retry", "url", url, "bytes", len(text))
		trail.Log(domain.StatusFailure, domain.StepValidateTextLength, domain.Context{
			"bytes": len(text),
			"url":   url,
		})
		return domain.StatusRetry, nil
	}

	if hits := patterns.CountLegalWords(text); hits < c.thresholds.MinLegalWords {
		c.debug("document does not read as legal text", "url", url, "legal_words", hits)
		trail.Log(domain.StatusFailure, domain.StepValidateLegalText, domain.Context{
			"legal_words": hits,
			"url":         url,
		})
		return domain.StatusFailure, nil
	}

	c.debug("legal text without reservation language", "url", url)
	trail.Log(domain.StatusFailure, domain.StepMatchFoundBest, domain.Context{
		"paragraphs": paraCount,
		"url":        url,
	})
	return domain.StatusAbort, nil
}

func (c *Classifier) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

// extractText parses the markup and joins the legal-looking paragraphs with
// newlines, so paragraph boundaries become line boundaries for matching.
// Parse problems are recorded but never fatal.
func (c *Classifier) extractText(url, rawHTML string, trail *domain.Trail) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		trail.Log(domain.StatusFailure, domain.StepParsePage, domain.Context{
			"url":   url,
			"error": err.Error(),
		})
		return ""
	}
	return strings.Join(htmltext.Paragraphs(doc), "\n")
}
