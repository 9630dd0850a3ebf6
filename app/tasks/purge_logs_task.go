package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/toutvamal/newsroom/app/database"
)

// PurgeLogsTask removes generation log entries older than the retention
// window.
type PurgeLogsTask struct {
	Task
	ledger        database.GenerationLogRepository
	retentionDays int
}

func NewPurgeLogsTask(ledger database.GenerationLogRepository, retentionDays int) *PurgeLogsTask {
	return &PurgeLogsTask{
		Task:          NewTask(TaskTypePurgeLogs, "ledger"),
		ledger:        ledger,
		retentionDays: retentionDays,
	}
}

func (t *PurgeLogsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	deleted, err := t.ledger.PurgeOlderThan(ctx, t.retentionDays)
	if err != nil {
		slog.Error("Task failed", "type", "PurgeLogs", "error", err)
		return fmt.Errorf("failed to purge generation logs: %w", err)
	}

	slog.Info("Task completed",
		"type", "PurgeLogs",
		"duration", t.GetDuration(),
		"retention_days", t.retentionDays,
		"deleted", deleted)

	return nil
}
