package discover

import (
	"reflect"
	"testing"

	"github.com/alexjc/weboptout/internal/domain"
)

const base = "https://example.com"

func lastRecord(t *testing.T, trail *domain.Trail) domain.Record {
	t.Helper()
	if trail.Len() == 0 {
		t.Fatal("expected at least one audit record")
	}
	return trail.Records()[trail.Len()-1]
}

func TestLinksObviousMatchesWinExclusively(t *testing.T) {
	t.Parallel()

	html := `<body>
		<a href="/terms">Terms of Service</a>
		<a href="/legal-stuff">click here</a>
		<a href="/about">Our terms explained</a>
	</body>`

	trail := &domain.Trail{}
	got := Links(base, html, trail)

	want := []string{"https://example.com/terms"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	record := lastRecord(t, trail)
	if record.Status != domain.StatusSuccess || record.Step != domain.StepFindGoodLinksToTerms {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestLinksObviousMatchesSortByHrefLength(t *testing.T) {
	t.Parallel()

	html := `<body>
		<a href="/legal/terms-of-service">Terms of Service</a>
		<a href="/tos">Terms of Use</a>
	</body>`

	got := Links(base, html, &domain.Trail{})
	want := []string{"https://example.com/tos", "https://example.com/legal/terms-of-service"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLinksInterleavesPartialMatches(t *testing.T) {
	t.Parallel()

	html := `<body>
		<a href="/legal">click</a>
		<a href="/about">read the terms</a>
	</body>`

	trail := &domain.Trail{}
	got := Links(base, html, trail)

	want := []string{"https://example.com/legal", "https://example.com/about"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	record := lastRecord(t, trail)
	if record.Status != domain.StatusSuccess || record.Step != domain.StepFindSomeLinksToTerms {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestLinksFiltersKnownFalsePositives(t *testing.T) {
	t.Parallel()

	html := `<body>
		<a href="/legal">click</a>
		<a href="/privacy">Terms and privacy</a>
		<a href="/user/login">account</a>
	</body>`

	got := Links(base, html, &domain.Trail{})
	if !reflect.DeepEqual(got, []string{"https://example.com/legal"}) {
		t.Fatalf("login/privacy targets must be filtered, got %v", got)
	}
}

func TestLinksIgnoresNonNavigableAnchors(t *testing.T) {
	t.Parallel()

	html := `<body>
		<a href="javascript:void(0)">Terms</a>
		<a href="#section">Terms</a>
		<a href="?page=2">Terms</a>
		<a href="/reload-page">Refresh</a>
	</body>`

	trail := &domain.Trail{}
	got := Links(base, html, trail)
	if got != nil {
		t.Fatalf("expected no candidates, got %v", got)
	}
	record := lastRecord(t, trail)
	if record.Status != domain.StatusFailure || record.Step != domain.StepValidatePageLinks {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestLinksDetectsScriptWalledPages(t *testing.T) {
	t.Parallel()

	html := `<body>
		<p>Please turn on javascript to continue.</p>
		<a href="/terms">Terms of Service</a>
	</body>`

	trail := &domain.Trail{}
	if got := Links(base, html, trail); got != nil {
		t.Fatalf("script-walled page is a dead end, got %v", got)
	}
	record := lastRecord(t, trail)
	if record.Step != domain.StepValidatePageLinks {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestLinksReportsPagesWithoutCandidates(t *testing.T) {
	t.Parallel()

	html := `<body><a href="/blog">Read our blog</a></body>`

	trail := &domain.Trail{}
	if got := Links(base, html, trail); got != nil {
		t.Fatalf("expected no candidates, got %v", got)
	}
	record := lastRecord(t, trail)
	if record.Status != domain.StatusFailure || record.Step != domain.StepFindSomeLinksToTerms {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestLinksResolvesAndDeduplicates(t *testing.T) {
	t.Parallel()

	html := `<body>
		<a href="terms">Terms of Service</a>
		<a href="terms">Terms of Service</a>
	</body>`

	got := Links("https://example.com/help/index.html", html, &domain.Trail{})
	want := []string{"https://example.com/help/terms"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
