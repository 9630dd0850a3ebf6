// Package dedup decides whether a candidate feed item would re-cover ground
// the site has already published or attempted. Two independent checks: an
// exact source-URL collision and a fuzzy keyword-overlap comparison against
// recent titles. Both operate on text only.
package dedup

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultSimilarityThreshold is the overlap ratio above which two
	// titles are considered the same topic. Strictly greater-than: a
	// ratio of exactly 0.5 is not a duplicate.
	DefaultSimilarityThreshold = 0.5

	// DefaultMinSharedKeywords guards against a single shared common word
	// flagging short titles as duplicates.
	DefaultMinSharedKeywords = 2

	// DefaultRecencyWindow bounds the reference pool of titles.
	DefaultRecencyWindow = 14 * 24 * time.Hour
)

// URLIndex answers whether a source URL has been seen before, across both
// published articles and every prior generation attempt (failures included).
type URLIndex interface {
	SeenSourceURL(ctx context.Context, url string) (bool, error)
}

// TitleIndex supplies the reference titles for the fuzzy check.
type TitleIndex interface {
	RecentTitles(ctx context.Context, since time.Time) ([]string, error)
}

// Verdict reports the outcome of a duplicate check for one candidate.
type Verdict struct {
	Duplicate bool
	Reason    string
}

type Checker struct {
	urls   URLIndex
	titles TitleIndex

	Threshold         float64
	MinSharedKeywords int
	RecencyWindow     time.Duration
}

func NewChecker(urls URLIndex, titles TitleIndex) *Checker {
	return &Checker{
		urls:              urls,
		titles:            titles,
		Threshold:         DefaultSimilarityThreshold,
		MinSharedKeywords: DefaultMinSharedKeywords,
		RecencyWindow:     DefaultRecencyWindow,
	}
}

// Check runs both duplicate checks for a candidate title and source URL.
// It returns a non-duplicate verdict only if both checks pass.
func (c *Checker) Check(ctx context.Context, title, sourceURL string) (Verdict, error) {
	if sourceURL != "" {
		seen, err := c.urls.SeenSourceURL(ctx, sourceURL)
		if err != nil {
			return Verdict{}, fmt.Errorf("failed to check source URL: %w", err)
		}
		if seen {
			return Verdict{Duplicate: true, Reason: "source URL already processed"}, nil
		}
	}

	candidate := ExtractKeywords(title)
	if len(candidate) == 0 {
		return Verdict{}, nil
	}

	since := time.Now().UTC().Add(-c.RecencyWindow)
	refs, err := c.titles.RecentTitles(ctx, since)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to load recent titles: %w", err)
	}

	for _, ref := range refs {
		ratio, shared := OverlapRatio(candidate, ExtractKeywords(ref))
		if ratio > c.Threshold && shared >= c.MinSharedKeywords {
			return Verdict{
				Duplicate: true,
				Reason:    fmt.Sprintf("topic overlaps recent title %.0f%%: %q", ratio*100, ref),
			}, nil
		}
	}

	return Verdict{}, nil
}
