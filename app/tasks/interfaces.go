package tasks

// TaskSchedulerInterface is the surface the rest of the application uses
// to hand work to the background worker pool: the recurring retention
// sweep enqueues itself, and the cross-context router enqueues one
// forward task per recorded vote.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
