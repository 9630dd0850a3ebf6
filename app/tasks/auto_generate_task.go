package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/toutvamal/newsroom/app/pipeline"
)

// Runner abstracts the pipeline orchestrator for task execution.
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// AutoGenerateTask is the scheduled batch driver: it consults the run
// coordinator, then runs the pipeline up to Count times with pacing between
// runs. Not retryable; a failed run is already recorded in the ledger and
// re-running the whole batch would double generation spend.
type AutoGenerateTask struct {
	Task
	coordinator pipeline.RunCoordinator
	runner      Runner
	count       int
	opts        pipeline.Options
	pacing      time.Duration
}

func NewAutoGenerateTask(coordinator pipeline.RunCoordinator, runner Runner, count int, opts pipeline.Options) *AutoGenerateTask {
	task := NewTask(TaskTypeAutoGenerate, "batch")
	task.MaxRetries = 0

	return &AutoGenerateTask{
		Task:        task,
		coordinator: coordinator,
		runner:      runner,
		count:       count,
		opts:        opts,
		pacing:      5 * time.Second,
	}
}

func (t *AutoGenerateTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.coordinator.TryAcquireRun() {
		return nil
	}

	generated := 0
	failed := 0
	declined := 0

runs:
	for i := 0; i < t.count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.pacing):
			}
		}

		result, err := t.runner.Run(ctx, t.opts)
		if err != nil {
			slog.Error("Scheduled generation run failed", "error", err)
			failed++
			break
		}

		switch result.Outcome {
		case pipeline.OutcomeGenerated:
			generated++
		case pipeline.OutcomeDeclined:
			declined++
		case pipeline.OutcomeFailed:
			failed++
		case pipeline.OutcomeNoEligibleItem:
			// The pool is exhausted; further runs would re-evaluate the
			// same items.
			break runs
		}
	}

	slog.Info("Task completed",
		"type", "AutoGenerate",
		"duration", t.GetDuration(),
		"generated", generated,
		"failed", failed,
		"declined", declined)

	return nil
}
