package database

import (
	"context"
	"database/sql"
	"fmt"
)

var _ JournalistRepository = (*JournalistRepositoryImpl)(nil)

type JournalistRepositoryImpl struct {
	db *DB
}

func NewJournalistRepository(db *DB) *JournalistRepositoryImpl {
	return &JournalistRepositoryImpl{db: db}
}

func (r *JournalistRepositoryImpl) GetJournalistByID(ctx context.Context, id int64) (*Journalist, error) {
	var j Journalist
	err := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, role, style, bio, active
		FROM journalists
		WHERE id = ?
	`, id).Scan(&j.ID, &j.Slug, &j.Name, &j.Role, &j.Style, &j.Bio, &j.Active)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journalist by id: %w", err)
	}

	return &j, nil
}

// GetRandomActiveJournalist picks the persona for a generation run.
func (r *JournalistRepositoryImpl) GetRandomActiveJournalist(ctx context.Context) (*Journalist, error) {
	var j Journalist
	err := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, role, style, bio, active
		FROM journalists
		WHERE active = 1
		ORDER BY RANDOM()
		LIMIT 1
	`).Scan(&j.ID, &j.Slug, &j.Name, &j.Role, &j.Style, &j.Bio, &j.Active)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get random journalist: %w", err)
	}

	return &j, nil
}

func (r *JournalistRepositoryImpl) GetActiveJournalistCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM journalists WHERE active = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count journalists: %w", err)
	}
	return count, nil
}
