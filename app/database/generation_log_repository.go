package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

var _ GenerationLogRepository = (*GenerationLogRepositoryImpl)(nil)

// GenerationLogRepositoryImpl is the ledger store: append-only entries, one
// per generation attempt, each mutated at most once to a terminal status.
type GenerationLogRepositoryImpl struct {
	db *DB
}

func NewGenerationLogRepository(db *DB) *GenerationLogRepositoryImpl {
	return &GenerationLogRepositoryImpl{db: db}
}

func (r *GenerationLogRepositoryImpl) CreateLog(ctx context.Context, entry GenerationLog) (int64, error) {
	status := entry.Status
	if status == "" {
		status = GenerationStatusPending
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO generation_logs (source_url, source_title, article_id, journalist_id,
			status, error_message, model_used, tokens_used, cost_estimate,
			generation_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.SourceURL, entry.SourceTitle, entry.ArticleID, entry.JournalistID,
		status, entry.ErrorMessage, entry.ModelUsed, entry.TokensUsed,
		entry.CostEstimate, entry.GenerationTimeSeconds, time.Now().UTC())

	if err != nil {
		return 0, fmt.Errorf("failed to create generation log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get generation log id: %w", err)
	}

	return id, nil
}

// UpdateLog applies a partial update restricted to the allow-listed fields.
func (r *GenerationLogRepositoryImpl) UpdateLog(ctx context.Context, id int64, update GenerationLogUpdate) error {
	var fields []string
	var args []interface{}

	if update.ArticleID != nil {
		fields = append(fields, "article_id = ?")
		args = append(args, *update.ArticleID)
	}
	if update.Status != nil {
		fields = append(fields, "status = ?")
		args = append(args, *update.Status)
	}
	if update.ErrorMessage != nil {
		fields = append(fields, "error_message = ?")
		args = append(args, *update.ErrorMessage)
	}
	if update.ModelUsed != nil {
		fields = append(fields, "model_used = ?")
		args = append(args, *update.ModelUsed)
	}
	if update.TokensUsed != nil {
		fields = append(fields, "tokens_used = ?")
		args = append(args, *update.TokensUsed)
	}
	if update.CostEstimate != nil {
		fields = append(fields, "cost_estimate = ?")
		args = append(args, *update.CostEstimate)
	}
	if update.GenerationTimeSeconds != nil {
		fields = append(fields, "generation_time = ?")
		args = append(args, *update.GenerationTimeSeconds)
	}

	if len(fields) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE generation_logs SET %s WHERE id = ?", strings.Join(fields, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update generation log: %w", err)
	}

	return nil
}

func (r *GenerationLogRepositoryImpl) GetLogByID(ctx context.Context, id int64) (*GenerationLog, error) {
	var entry GenerationLog
	err := r.db.QueryRowContext(ctx, `
		SELECT id, source_url, source_title, article_id, journalist_id, status,
		       error_message, model_used, tokens_used, cost_estimate,
		       generation_time, created_at
		FROM generation_logs
		WHERE id = ?
	`, id).Scan(
		&entry.ID, &entry.SourceURL, &entry.SourceTitle, &entry.ArticleID,
		&entry.JournalistID, &entry.Status, &entry.ErrorMessage, &entry.ModelUsed,
		&entry.TokensUsed, &entry.CostEstimate, &entry.GenerationTimeSeconds,
		&entry.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generation log: %w", err)
	}

	return &entry, nil
}

// ListLogs returns a page of entries, newest first, with the total count
// for the same status filter.
func (r *GenerationLogRepositoryImpl) ListLogs(ctx context.Context, status string, limit, offset int) ([]GenerationLog, int, error) {
	query := `
		SELECT id, source_url, source_title, article_id, journalist_id, status,
		       error_message, model_used, tokens_used, cost_estimate,
		       generation_time, created_at
		FROM generation_logs`
	var args []interface{}

	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list generation logs: %w", err)
	}
	defer rows.Close()

	var entries []GenerationLog
	for rows.Next() {
		var entry GenerationLog
		err := rows.Scan(
			&entry.ID, &entry.SourceURL, &entry.SourceTitle, &entry.ArticleID,
			&entry.JournalistID, &entry.Status, &entry.ErrorMessage, &entry.ModelUsed,
			&entry.TokensUsed, &entry.CostEstimate, &entry.GenerationTimeSeconds,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan generation log row: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating generation log rows: %w", err)
	}

	total, err := r.CountLogs(ctx, status)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// PurgeOlderThan deletes entries older than the given number of days and
// returns how many were removed.
func (r *GenerationLogRepositoryImpl) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM generation_logs WHERE created_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge generation logs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get purge count: %w", err)
	}

	return deleted, nil
}

// MarkRetried annotates a failed entry that has been superseded by a fresh
// attempt, so failed-then-retried rows stay distinguishable.
func (r *GenerationLogRepositoryImpl) MarkRetried(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE generation_logs
		SET error_message = COALESCE(error_message, '') || ' [RETRIED]'
		WHERE id = ?
	`, id)

	if err != nil {
		return fmt.Errorf("failed to mark generation log as retried: %w", err)
	}

	return nil
}

// ExistsSourceURL reports whether any attempt, failed ones included, has
// already consumed the given source URL.
func (r *GenerationLogRepositoryImpl) ExistsSourceURL(ctx context.Context, url string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM generation_logs WHERE source_url = ? LIMIT 1
	`, url).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check generation log source url: %w", err)
	}

	return true, nil
}

// RecentSourceTitles returns the source titles of entries created after the
// given instant, for topic-similarity reference.
func (r *GenerationLogRepositoryImpl) RecentSourceTitles(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_title
		FROM generation_logs
		WHERE created_at > ? AND source_title != ''
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent source titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan source title row: %w", err)
		}
		titles = append(titles, title)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source title rows: %w", err)
	}

	return titles, nil
}

func (r *GenerationLogRepositoryImpl) CountLogs(ctx context.Context, status string) (int, error) {
	var count int
	var err error

	if status == "" {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generation_logs").Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generation_logs WHERE status = ?", status).Scan(&count)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to count generation logs: %w", err)
	}

	return count, nil
}
