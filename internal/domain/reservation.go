package domain

// Status is the result code of a single pipeline operation. It doubles as
// the level of an audit record: SUCCESS and FAILURE mark whether a step
// worked, RETRY and ABORT steer the crawl loop.
type Status int

const (
	StatusSuccess Status = 1
	StatusFailure Status = 0
	StatusRetry   Status = -1
	StatusAbort   Status = -2
)

// String renders the status for audit output.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusRetry:
		return "retry"
	case StatusAbort:
		return "abort"
	}
	return "unknown"
}

// Kind enumerates the possible verdicts of a domain check. KindNo is
// reserved: no classification path currently produces a direct negative.
type Kind int

const (
	KindYes   Kind = 2
	KindMaybe Kind = 1
	KindNo    Kind = 0
	KindError Kind = -1
)

// String renders the verdict kind.
func (k Kind) String() string {
	switch k {
	case KindYes:
		return "yes"
	case KindMaybe:
		return "maybe"
	case KindNo:
		return "no"
	case KindError:
		return "error"
	}
	return "unknown"
}

// Match is one reason produced by ranked pattern matching: the index of the
// pattern that fired (lower = higher confidence), the excerpt expanded to
// the surrounding sentence delimiters, and the full source paragraph.
type Match struct {
	Rank      int
	Excerpt   string
	Paragraph string
}

// Reservation is the final verdict for one domain check. Values are built
// once, when the check completes, and never mutated afterward. Process holds
// the full audit trail in execution order; Outcome holds the classifier
// matches, most relevant first.
type Reservation struct {
	Kind    Kind
	URL     string
	Process []Record
	Outcome []Match
}

// Prototype verdicts, specialized via With at the end of a check.
var (
	Yes   = Reservation{Kind: KindYes}
	Maybe = Reservation{Kind: KindMaybe}
	No    = Reservation{Kind: KindNo}
	Err   = Reservation{Kind: KindError}
)

// With clones the prototype, attaching the document URL, the audit trail,
// and the classification outcome.
func (r Reservation) With(url string, trail *Trail, outcome []Match) Reservation {
	return Reservation{
		Kind:    r.Kind,
		URL:     url,
		Process: trail.Records(),
		Outcome: outcome,
	}
}

// Summary returns the top-ranked excerpt, or "" when there is no outcome.
func (r Reservation) Summary() string {
	if len(r.Outcome) == 0 {
		return ""
	}
	return r.Outcome[0].Excerpt
}
