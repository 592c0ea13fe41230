package classify

import (
	"reflect"
	"regexp"
	"testing"

	"github.com/alexjc/weboptout/internal/patterns"
)

func TestRankedMatchesExpandsToSentenceDelimiters(t *testing.T) {
	t.Parallel()

	text := "You agree to the following; no scraping of any kind is allowed; see section 4."
	matches := RankedMatches(patterns.TDMConcepts, text, 512)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	if matches[0].Rank != 0 {
		t.Fatalf("expected rank 0 for scraping pattern, got %d", matches[0].Rank)
	}
	if matches[0].Excerpt != "no scraping of any kind is allowed;" {
		t.Fatalf("unexpected excerpt: %q", matches[0].Excerpt)
	}
	if matches[0].Paragraph != text {
		t.Fatalf("paragraph should be the full line, got %q", matches[0].Paragraph)
	}
}

func TestRankedMatchesFirstPatternPerLineWins(t *testing.T) {
	t.Parallel()

	// Both the crawler pattern (rank 1) and the harvest pattern (rank 5)
	// appear; only the lower rank counts for this line.
	text := "Use of any crawler to harvest material is prohibited."
	matches := RankedMatches(patterns.TDMConcepts, text, 512)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Rank != 1 {
		t.Fatalf("expected rank 1, got %d", matches[0].Rank)
	}
}

func TestRankedMatchesOrdering(t *testing.T) {
	t.Parallel()

	text := "We may harvest submissions for archival purposes over long periods of time.\n" +
		"No scraping.\n" +
		"Automated scraping of the service and all related pages is forbidden."
	matches := RankedMatches(patterns.TDMConcepts, text, 512)
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}

	// Equal rank: longer excerpt first; the harvest line sorts last on rank.
	if matches[0].Rank != 0 || matches[1].Rank != 0 || matches[2].Rank != 5 {
		t.Fatalf("unexpected rank order: %d %d %d", matches[0].Rank, matches[1].Rank, matches[2].Rank)
	}
	if len(matches[0].Excerpt) < len(matches[1].Excerpt) {
		t.Fatalf("longer excerpt should sort first within a rank: %q before %q",
			matches[0].Excerpt, matches[1].Excerpt)
	}
}

func TestRankedMatchesIdempotent(t *testing.T) {
	t.Parallel()

	text := "Robots are forbidden.\nWe prohibit data mining here.\nNo spider may index this."
	first := RankedMatches(patterns.TDMConcepts, text, 512)
	second := RankedMatches(patterns.TDMConcepts, text, 512)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("matching is not idempotent:\n%v\n%v", first, second)
	}
	if len(first) == 0 {
		t.Fatal("expected matches")
	}
}

func TestRankedMatchesSkipsOversizedExcerpts(t *testing.T) {
	t.Parallel()

	long := "no scraping"
	for len(long) < 600 {
		long += " and more words without any delimiter at all"
	}
	matches := RankedMatches(patterns.TDMConcepts, long, 512)
	if len(matches) != 0 {
		t.Fatalf("oversized excerpt should be dropped, got %d matches", len(matches))
	}
}

func TestRankedMatchesTrimsPunctuation(t *testing.T) {
	t.Parallel()

	pats := []*regexp.Regexp{regexp.MustCompile(`(?i)data mining`)}
	matches := RankedMatches(pats, "Some intro. (data mining is banned). Rest.", 512)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Excerpt != "data mining is banned" {
		t.Fatalf("unexpected excerpt: %q", matches[0].Excerpt)
	}
}

func TestRankedMatchesEmptyMeansNoMatch(t *testing.T) {
	t.Parallel()

	matches := RankedMatches(patterns.TDMConcepts, "Nothing interesting whatsoever.", 512)
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}
