package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taylorsudo/rba-aud-rates/internal/version"
)

const (
	// DefaultFeedURL is the RBA 4pm exchange-rate RSS endpoint.
	DefaultFeedURL = "https://www.rba.gov.au/rss/rss-cb-exchange-rates.xml"

	defaultTimeout  = 30 * time.Second
	maxErrorSnippet = 256
)

// ErrFetch wraps every transport-level failure of the feed download.
var ErrFetch = errors.New("fetch feed")

// FeedOptions parameterise the feed fetcher.
type FeedOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Feed downloads the raw exchange-rate document.
type Feed struct {
	opts   FeedOptions
	logger zerolog.Logger
	client *http.Client
}

// NewFeed constructs a feed fetcher with a bounded request timeout.
func NewFeed(opts FeedOptions, logger zerolog.Logger) *Feed {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if strings.TrimSpace(opts.URL) == "" {
		opts.URL = DefaultFeedURL
	}

	return &Feed{
		opts:   opts,
		logger: logger.With().Str("component", "feed_fetcher").Logger(),
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// URL reports the endpoint the fetcher reads from.
func (f *Feed) URL() string {
	return f.opts.URL
}

// FetchFeed performs a single GET and returns the body. There are no retries.
func (f *Feed) FetchFeed(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/rdf+xml, application/xml, text/xml")
	ua := strings.TrimSpace(f.opts.UserAgent)
	if ua == "" {
		ua = version.UserAgent()
	}
	req.Header.Set("User-Agent", ua)

	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	f.logger.Debug().
		Str("url", f.opts.URL).
		Int("status", resp.StatusCode).
		Int("bytes", len(payload)).
		Dur("elapsed", time.Since(started)).
		Msg("feed downloaded")

	return payload, nil
}

func parseHTTPError(status int, payload []byte) error {
	snippet := strings.TrimSpace(string(payload))
	if len(snippet) > maxErrorSnippet {
		snippet = snippet[:maxErrorSnippet] + "..."
	}
	if snippet != "" {
		return fmt.Errorf("%w: http %d: %s", ErrFetch, status, snippet)
	}
	return fmt.Errorf("%w: http %d", ErrFetch, status)
}

var _ FeedFetcher = (*Feed)(nil)
