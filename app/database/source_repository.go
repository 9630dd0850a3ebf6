package database

import (
	"context"
	"fmt"
	"time"
)

var _ SourceRepository = (*SourceRepositoryImpl)(nil)

type SourceRepositoryImpl struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepositoryImpl {
	return &SourceRepositoryImpl{db: db}
}

func (r *SourceRepositoryImpl) GetSources(ctx context.Context, activeOnly bool) ([]RssSource, error) {
	query := `
		SELECT id, name, url, category, active, last_fetched_at, created_at
		FROM rss_sources
		ORDER BY name`
	if activeOnly {
		query = `
		SELECT id, name, url, category, active, last_fetched_at, created_at
		FROM rss_sources
		WHERE active = 1
		ORDER BY name`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	defer rows.Close()

	var sources []RssSource
	for rows.Next() {
		var s RssSource
		err := rows.Scan(&s.ID, &s.Name, &s.URL, &s.Category, &s.Active, &s.LastFetchedAt, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

// UpsertSource registers a configured source, keyed by its unique URL.
func (r *SourceRepositoryImpl) UpsertSource(ctx context.Context, name, url string, category *string, active bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rss_sources (name, url, category, active, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			active = excluded.active
	`, name, url, category, active, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	return nil
}

func (r *SourceRepositoryImpl) TouchLastFetched(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE rss_sources SET last_fetched_at = ? WHERE id = ?
	`, at, id)

	if err != nil {
		return fmt.Errorf("failed to update last fetched time: %w", err)
	}

	return nil
}
