package tasks

// TaskSchedulerInterface defines the interface for background task
// scheduling. The main application uses it to start and stop the worker
// pool; API handlers use EnqueueTask to trigger out-of-band work.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
