package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/toutvamal/newsroom/app/cfg"
	"github.com/toutvamal/newsroom/app/database"
	"github.com/toutvamal/newsroom/app/pipeline"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const purgeInterval = 24 * time.Hour

type Scheduler struct {
	sourceRepo  database.SourceRepository
	ledger      database.GenerationLogRepository
	coordinator pipeline.RunCoordinator
	runner      Runner
	seedSources []cfg.SourceConfig

	interval         time.Duration
	generateInterval time.Duration
	generateCount    int
	retentionDays    int
	generateOpts     pipeline.Options
	workerCount      int

	lastGenerate time.Time
	lastPurge    time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

func NewScheduler(sourceRepo database.SourceRepository, ledger database.GenerationLogRepository,
	coordinator pipeline.RunCoordinator, runner Runner, seedSources []cfg.SourceConfig) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		sourceRepo:       sourceRepo,
		ledger:           ledger,
		coordinator:      coordinator,
		runner:           runner,
		seedSources:      seedSources,
		interval:         time.Duration(c.SchedulerInterval) * time.Second,
		generateInterval: time.Duration(c.GenerateInterval) * time.Second,
		generateCount:    c.GenerateCount,
		retentionDays:    c.LogRetentionDays,
		generateOpts: pipeline.Options{
			AutoPublish:   c.AutoPublish,
			GenerateImage: c.GenerateImages && c.ReplicateAPIKey != "",
		},
		workerCount: c.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	if len(s.seedSources) == 0 {
		slog.Debug("No seed sources configured")
		return
	}

	syncTask := NewSyncSourcesTask(s.seedSources, s.sourceRepo)
	if err := s.EnqueueTask(syncTask); err != nil {
		slog.Warn("Failed to enqueue SyncSourcesTask", "error", err)
	}
}

// enqueueDueTasks runs every tick and enqueues the periodic tasks whose
// cadence has elapsed. The generation task has its own cooldown via the run
// coordinator; the cadence here only bounds how often it is attempted.
func (s *Scheduler) enqueueDueTasks() {
	now := time.Now()

	if now.Sub(s.lastGenerate) >= s.generateInterval {
		task := NewAutoGenerateTask(s.coordinator, s.runner, s.generateCount, s.generateOpts)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue AutoGenerateTask", "error", err)
		} else {
			s.lastGenerate = now
		}
	}

	if now.Sub(s.lastPurge) >= purgeInterval {
		task := NewPurgeLogsTask(s.ledger, s.retentionDays)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue PurgeLogsTask", "error", err)
		} else {
			s.lastPurge = now
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 15*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
