package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/toutvamal/newsroom/app/cfg"
	"github.com/toutvamal/newsroom/app/database"
)

// SyncSourcesTask registers the YAML-seeded RSS sources into the database.
// Runs at startup so source rows always reflect the seed file.
type SyncSourcesTask struct {
	Task
	sources    []cfg.SourceConfig
	sourceRepo database.SourceRepository
}

func NewSyncSourcesTask(sources []cfg.SourceConfig, sourceRepo database.SourceRepository) *SyncSourcesTask {
	return &SyncSourcesTask{
		Task:       NewTask(TaskTypeSyncSources, "sources"),
		sources:    sources,
		sourceRepo: sourceRepo,
	}
}

func (t *SyncSourcesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	synced := 0
	for _, source := range t.sources {
		var category *string
		if source.Category != "" {
			category = &source.Category
		}

		err := t.sourceRepo.UpsertSource(ctx, source.Name, source.URL, category, source.IsActive())
		if err != nil {
			slog.Error("Task failed", "type", "SyncSources", "source", source.Name, "error", err)
			return fmt.Errorf("failed to sync source %q: %w", source.Name, err)
		}
		synced++
	}

	slog.Info("Task completed",
		"type", "SyncSources",
		"duration", t.GetDuration(),
		"synced", synced)

	return nil
}
