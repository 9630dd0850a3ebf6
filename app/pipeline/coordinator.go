package pipeline

import (
	"log/slog"
	"os"
	"time"
)

// RunCoordinator gates scheduled batch runs. It sits outside the run state
// machine: callers consult it before starting a batch, never during one.
type RunCoordinator interface {
	TryAcquireRun() bool
}

// FileCoordinator rate-limits batches with a timestamp file: a run is
// allowed only when the file is absent or older than the cooldown, and
// acquiring refreshes the timestamp.
type FileCoordinator struct {
	path     string
	cooldown time.Duration
}

func NewFileCoordinator(path string, cooldown time.Duration) *FileCoordinator {
	return &FileCoordinator{path: path, cooldown: cooldown}
}

var _ RunCoordinator = (*FileCoordinator)(nil)

func (c *FileCoordinator) TryAcquireRun() bool {
	info, err := os.Stat(c.path)
	if err == nil {
		elapsed := time.Since(info.ModTime())
		if elapsed < c.cooldown {
			slog.Info("Batch run skipped by cooldown",
				"elapsed", elapsed.Round(time.Second),
				"next_allowed", info.ModTime().Add(c.cooldown).Format(time.RFC3339))
			return false
		}
	}

	if err := os.WriteFile(c.path, nil, 0o644); err != nil {
		slog.Warn("Failed to write run coordinator file", "path", c.path, "error", err)
		return true
	}
	now := time.Now()
	if err := os.Chtimes(c.path, now, now); err != nil {
		slog.Warn("Failed to touch run coordinator file", "path", c.path, "error", err)
	}

	return true
}
