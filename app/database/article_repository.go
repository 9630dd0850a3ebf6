package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ ArticleRepository = (*ArticleRepositoryImpl)(nil)

type ArticleRepositoryImpl struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepositoryImpl {
	return &ArticleRepositoryImpl{db: db}
}

func (r *ArticleRepositoryImpl) CreateArticle(ctx context.Context, article Article) (int64, error) {
	now := time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO articles (slug, title, content, excerpt, category, image_path,
			journalist_id, source_title, source_url, status, published_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.Slug, article.Title, article.Content, article.Excerpt, article.Category,
		article.ImagePath, article.JournalistID, article.SourceTitle, article.SourceURL,
		article.Status, article.PublishedAt, now, now)

	if err != nil {
		return 0, fmt.Errorf("failed to create article: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get article id: %w", err)
	}

	return id, nil
}

func (r *ArticleRepositoryImpl) GetArticleByID(ctx context.Context, id int64) (*Article, error) {
	var a Article
	err := r.db.QueryRowContext(ctx, `
		SELECT id, slug, title, content, excerpt, category, image_path,
		       journalist_id, source_title, source_url, status, published_at,
		       created_at, updated_at
		FROM articles
		WHERE id = ?
	`, id).Scan(
		&a.ID, &a.Slug, &a.Title, &a.Content, &a.Excerpt, &a.Category, &a.ImagePath,
		&a.JournalistID, &a.SourceTitle, &a.SourceURL, &a.Status, &a.PublishedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by id: %w", err)
	}

	return &a, nil
}

func (r *ArticleRepositoryImpl) ExistsBySourceURL(ctx context.Context, url string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM articles WHERE source_url = ? LIMIT 1
	`, url).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check source url: %w", err)
	}

	return true, nil
}

// RecentTitles returns title and source title of the most recent articles,
// newest first, as reference texts for topic-similarity checks.
func (r *ArticleRepositoryImpl) RecentTitles(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT title || ' ' || source_title
		FROM articles
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title row: %w", err)
		}
		titles = append(titles, title)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating title rows: %w", err)
	}

	return titles, nil
}

// CountArticles counts articles, optionally restricted to one status.
func (r *ArticleRepositoryImpl) CountArticles(ctx context.Context, status string) (int, error) {
	var count int
	var err error

	if status == "" {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE status = ?", status).Scan(&count)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}

	return count, nil
}
