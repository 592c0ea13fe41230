package domain

// Step identifies a named pipeline checkpoint in the audit trail. The value
// is the human-readable description shown to end users.
type Step string

const (
	// HTTP
	StepResolveDomain         Step = "resolving domain"
	StepEstablishConnection   Step = "establishing connection"
	StepRetrieveContent       Step = "retrieving content"
	StepCheckErrorCode        Step = "checking HTTP response code"
	StepValidateContentFormat Step = "validate the format of the content"

	// HTML
	StepRetrievePage          Step = "retrieving the page via HTTP"
	StepParsePage             Step = "parsing page as HTML"
	StepValidatePageLinks     Step = "validating the links within the HTML page"
	StepFindSomeLinksToTerms  Step = "finding links to ToS pages"
	StepFindGoodLinksToTerms  Step = "finding good links to ToS pages"

	// TEXT
	StepExtractText          Step = "extracting text from page"
	StepValidateTextLength   Step = "validating text length"
	StepValidateTextLanguage Step = "validating language from ToS text"
	StepValidateLegalText    Step = "validating text by checking legal words"

	// LEGAL
	StepMatchTermsInclusion Step = "matching terms that include paragraphs"
	StepMatchFoundBest      Step = "matching best paragraph"
)

// Context is the key/value diagnostic bag attached to an audit record.
type Context map[string]any

// Record is one entry in the audit trail.
type Record struct {
	Status  Status
	Step    Step
	Context Context
}

// Trail accumulates audit records in strict execution order. Appending is
// best-effort and never fails; a nil trail silently discards records so that
// recording can never abort the step being recorded.
type Trail struct {
	records []Record
}

// Log appends one record.
func (t *Trail) Log(status Status, step Step, ctx Context) {
	if t == nil {
		return
	}
	if ctx == nil {
		ctx = Context{}
	}
	t.records = append(t.records, Record{Status: status, Step: step, Context: ctx})
}

// Records returns a copy of the trail so far.
func (t *Trail) Records() []Record {
	if t == nil {
		return nil
	}
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len reports how many records have been logged.
func (t *Trail) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}
