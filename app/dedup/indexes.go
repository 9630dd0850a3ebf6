package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/toutvamal/newsroom/app/database"
)

const articleReferenceLimit = 100

var (
	_ URLIndex   = (*RepositoryURLIndex)(nil)
	_ TitleIndex = (*RepositoryTitleIndex)(nil)
)

// RepositoryURLIndex answers the exact-URL check against both published
// articles and the generation ledger, so failed attempts also block reuse.
type RepositoryURLIndex struct {
	articles database.ArticleRepository
	ledger   database.GenerationLogRepository
}

func NewRepositoryURLIndex(articles database.ArticleRepository, ledger database.GenerationLogRepository) *RepositoryURLIndex {
	return &RepositoryURLIndex{articles: articles, ledger: ledger}
}

func (i *RepositoryURLIndex) SeenSourceURL(ctx context.Context, url string) (bool, error) {
	seen, err := i.ledger.ExistsSourceURL(ctx, url)
	if err != nil {
		return false, fmt.Errorf("failed to check ledger source URLs: %w", err)
	}
	if seen {
		return true, nil
	}

	seen, err = i.articles.ExistsBySourceURL(ctx, url)
	if err != nil {
		return false, fmt.Errorf("failed to check article source URLs: %w", err)
	}

	return seen, nil
}

// RepositoryTitleIndex assembles the fuzzy-check reference pool: the newest
// article titles plus the ledger source titles inside the recency window.
type RepositoryTitleIndex struct {
	articles database.ArticleRepository
	ledger   database.GenerationLogRepository
}

func NewRepositoryTitleIndex(articles database.ArticleRepository, ledger database.GenerationLogRepository) *RepositoryTitleIndex {
	return &RepositoryTitleIndex{articles: articles, ledger: ledger}
}

func (i *RepositoryTitleIndex) RecentTitles(ctx context.Context, since time.Time) ([]string, error) {
	titles, err := i.articles.RecentTitles(ctx, articleReferenceLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load article titles: %w", err)
	}

	ledgerTitles, err := i.ledger.RecentSourceTitles(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger source titles: %w", err)
	}

	return append(titles, ledgerTitles...), nil
}
