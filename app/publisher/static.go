// Package publisher snapshots rendered article pages into static HTML files.
// Publication is best effort: a failed snapshot is logged and the article
// stays served dynamically until the next regeneration.
package publisher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type StaticPublisher struct {
	httpClient *http.Client
	siteURL    string
	staticDir  string
}

func NewStaticPublisher(siteURL, staticDir string) *StaticPublisher {
	return &StaticPublisher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		siteURL:    strings.TrimRight(siteURL, "/"),
		staticDir:  staticDir,
	}
}

// PublishArticle fetches the rendered page for the slug and writes it to the
// static directory. Errors are logged, never propagated; article persistence
// has already happened by the time this runs.
func (p *StaticPublisher) PublishArticle(ctx context.Context, slug string) {
	pageURL := fmt.Sprintf("%s/articles/%s.html", p.siteURL, slug)
	target := filepath.Join(p.staticDir, "articles", slug+".html")

	if err := p.snapshot(ctx, pageURL, target); err != nil {
		slog.Warn("Static article snapshot failed", "slug", slug, "error", err)
		return
	}

	slog.Info("Static article published", "slug", slug, "path", target)
}

// PublishHomepage refreshes the static homepage so a freshly published
// article shows up without waiting for the next full regeneration.
func (p *StaticPublisher) PublishHomepage(ctx context.Context) {
	target := filepath.Join(p.staticDir, "index.html")

	if err := p.snapshot(ctx, p.siteURL+"/", target); err != nil {
		slog.Warn("Static homepage snapshot failed", "error", err)
		return
	}

	slog.Info("Static homepage published", "path", target)
}

func (p *StaticPublisher) snapshot(ctx context.Context, pageURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create snapshot request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("page returned HTTP %d", resp.StatusCode)
	}

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read page body: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create static directory: %w", err)
	}

	if err := os.WriteFile(target, html, 0o644); err != nil {
		return fmt.Errorf("failed to write static file: %w", err)
	}

	return nil
}
