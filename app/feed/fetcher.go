// Package feed fetches candidate items from configured RSS/Atom sources and
// merges them into one shuffled pool for downstream selection.
package feed

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const (
	// DefaultMaxItemsPerFeed caps each source's contribution so a verbose
	// feed cannot dominate the aggregate pool.
	DefaultMaxItemsPerFeed = 5

	DefaultFetchTimeout = 10 * time.Second
)

type Fetcher struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	sanitizer  *bluemonday.Policy
	userAgent  string

	MaxItemsPerFeed int
	FetchTimeout    time.Duration
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient:      httpClient,
		parser:          gofeed.NewParser(),
		sanitizer:       bluemonday.StrictPolicy(),
		userAgent:       userAgent,
		MaxItemsPerFeed: DefaultMaxItemsPerFeed,
		FetchTimeout:    DefaultFetchTimeout,
	}
}

// Fetch retrieves and parses one feed into at most MaxItemsPerFeed items.
// RSS 2.0 and Atom are both handled by the parser; for Atom entries gofeed
// already prefers the rel="alternate" link. Errors are returned to the
// caller, which treats them as soft failures.
func (f *Fetcher) Fetch(ctx context.Context, url, sourceName string) ([]Item, error) {
	data, err := f.download(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	parsed, err := f.parser.ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, f.MaxItemsPerFeed)
	for _, entry := range parsed.Items {
		if len(items) >= f.MaxItemsPerFeed {
			break
		}

		description := entry.Description
		if description == "" {
			description = entry.Content
		}

		items = append(items, Item{
			Title:       strings.TrimSpace(entry.Title),
			Description: f.stripTags(description),
			Link:        strings.TrimSpace(entry.Link),
			PublishedAt: entry.PublishedParsed,
			SourceName:  sourceName,
		})
	}

	return items, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// stripTags reduces a feed description to trimmed plain text.
func (f *Fetcher) stripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(f.sanitizer.Sanitize(s)))
}
