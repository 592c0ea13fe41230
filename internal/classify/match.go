package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/alexjc/weboptout/internal/domain"
)

// sentence delimiters used to expand a match into a readable excerpt.
const delimiters = "().;"

// RankedMatches runs an ordered pattern list over text split into lines
// (paragraph boundaries). For each line only the first matching pattern
// counts. Matches are returned sorted so that lower pattern ranks dominate
// and, within a rank, longer excerpts come first; ties keep document order.
func RankedMatches(pats []*regexp.Regexp, text string, maxExcerpt int) []domain.Match {
	var matches []domain.Match

	for _, line := range strings.Split(text, "\n") {
		for rank, pat := range pats {
			loc := pat.FindStringIndex(line)
			if loc == nil {
				continue
			}

			excerpt := expandExcerpt(line, loc[0], loc[1]-1)
			if len(excerpt) < maxExcerpt {
				matches = append(matches, domain.Match{
					Rank:      rank,
					Excerpt:   strings.TrimRight(strings.TrimLeft(excerpt, "().,; "), "() "),
					Paragraph: line,
				})
			}
			break
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Rank*1000-len(matches[a].Excerpt) < matches[b].Rank*1000-len(matches[b].Excerpt)
	})
	return matches
}

// expandExcerpt widens the span [i, j] outward to the nearest sentence
// delimiter on each side, bounded by the line. Delimiters are ASCII so
// byte-wise scanning never splits a UTF-8 sequence.
func expandExcerpt(line string, i, j int) string {
	for i > 0 && !strings.ContainsRune(delimiters, rune(line[i])) {
		i--
	}
	for j+1 < len(line) && !strings.ContainsRune(delimiters, rune(line[j])) {
		j++
	}
	return line[i : j+1]
}
