package database

import (
	"context"
	"time"
)

type SourceRepository interface {
	GetSources(ctx context.Context, activeOnly bool) ([]RssSource, error)
	UpsertSource(ctx context.Context, name, url string, category *string, active bool) error
	TouchLastFetched(ctx context.Context, id int64, at time.Time) error
}

type ArticleRepository interface {
	CreateArticle(ctx context.Context, article Article) (int64, error)
	GetArticleByID(ctx context.Context, id int64) (*Article, error)
	ExistsBySourceURL(ctx context.Context, url string) (bool, error)
	RecentTitles(ctx context.Context, limit int) ([]string, error)
	CountArticles(ctx context.Context, status string) (int, error)
}

type JournalistRepository interface {
	GetJournalistByID(ctx context.Context, id int64) (*Journalist, error)
	GetRandomActiveJournalist(ctx context.Context) (*Journalist, error)
	GetActiveJournalistCount(ctx context.Context) (int, error)
}

// GenerationLogUpdate is the allow-list of ledger fields mutable after
// creation. Nil fields are left untouched.
type GenerationLogUpdate struct {
	ArticleID             *int64
	Status                *string
	ErrorMessage          *string
	ModelUsed             *string
	TokensUsed            *int64
	CostEstimate          *float64
	GenerationTimeSeconds *float64
}

type GenerationLogRepository interface {
	CreateLog(ctx context.Context, entry GenerationLog) (int64, error)
	UpdateLog(ctx context.Context, id int64, update GenerationLogUpdate) error
	GetLogByID(ctx context.Context, id int64) (*GenerationLog, error)
	ListLogs(ctx context.Context, status string, limit, offset int) ([]GenerationLog, int, error)
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
	MarkRetried(ctx context.Context, id int64) error
	ExistsSourceURL(ctx context.Context, url string) (bool, error)
	RecentSourceTitles(ctx context.Context, since time.Time) ([]string, error)
	CountLogs(ctx context.Context, status string) (int, error)
}
