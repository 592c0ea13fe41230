// Package httpclient implements the static-fetch collaborator: a plain HTTP
// client with the timeouts, headers, and content screening the crawl
// expects, plus a caching decorator.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/alexjc/weboptout/internal/config"
	"github.com/alexjc/weboptout/internal/ports"
)

const maxBodyBytes = 8 << 20

// Client fetches pages with a connect timeout and an overall deadline. Both
// surface as transport errors, never as a crash.
type Client struct {
	http           *http.Client
	userAgent      string
	acceptLanguage string
	forwardedFor   string
}

var _ ports.Fetcher = (*Client)(nil)

// New builds the client from configuration.
func New(cfg config.HTTPConfig) *Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout.Or(5 * time.Second)}
	return &Client{
		http: &http.Client{
			Timeout: cfg.RequestTimeout.Or(10 * time.Second),
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: cfg.ConnectTimeout.Or(5 * time.Second),
			},
		},
		userAgent:      cfg.UserAgent,
		acceptLanguage: cfg.AcceptLanguage,
		forwardedFor:   cfg.ForwardedFor,
	}
}

// Fetch retrieves url. Binary and XML responses degrade to an empty body
// with a note; HTTP error codes are reported but the body is kept, since
// many sites serve usable ToS pages with odd status codes.
func (c *Client) Fetch(ctx context.Context, url string) (*ports.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.acceptLanguage != "" {
		req.Header.Set("Accept-Language", c.acceptLanguage)
	}
	if c.forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", c.forwardedFor)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	result := &ports.FetchResult{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "image/") {
		result.Note = "binary content where text/* was expected"
		return result, nil
	}
	if strings.Contains(contentType, "application/xml") {
		result.Note = "XML content where text/* was expected"
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	result.Body = string(body)
	return result, nil
}
