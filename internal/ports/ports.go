package ports

import (
	"context"
	"net/http"

	"github.com/alexjc/weboptout/internal/domain"
)

// FetchResult is the outcome of retrieving one URL. A non-nil result with an
// empty Body means the server was reachable but returned nothing usable;
// transport failures are reported as errors instead.
type FetchResult struct {
	FinalURL   string      `json:"final_url"`
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       string      `json:"body"`

	// Note explains why the body was discarded (wrong content type, etc.).
	Note string `json:"note,omitempty"`
	// Cached marks results served from the page cache rather than the network.
	Cached bool `json:"-"`
}

// Fetcher retrieves pages over plain HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Renderer retrieves pages through a browser-rendering fallback. It is a
// scarce shared resource; calls may block behind other callers.
type Renderer interface {
	Render(ctx context.Context, url string, header http.Header) (*FetchResult, error)
}

// Browser drives a rendering engine. One engine instance is shared
// process-wide; Open starts a fresh tab for a single page load.
type Browser interface {
	Open(ctx context.Context, url string) (Tab, error)
}

// Tab is a single page load inside the shared browser.
type Tab interface {
	Loading(ctx context.Context) (bool, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}

// PageCache stores fetch results addressed by URL.
type PageCache interface {
	Get(url string) (*FetchResult, bool)
	Put(url string, res *FetchResult)
}

// LanguageDetector guesses the language of a text as an ISO 639-3 code.
// reliable is false when the text is too short or ambiguous to judge.
type LanguageDetector interface {
	Detect(text string) (code string, reliable bool)
}

// ReservationStore persists reservation summaries keyed by domain name.
type ReservationStore interface {
	Lookup(ctx context.Context, host string) (domain.Reservation, bool, error)
	Save(ctx context.Context, host string, res domain.Reservation) error
	Close() error
}
