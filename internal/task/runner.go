package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrRunnerNotStarted is returned by Stop before Start.
var ErrRunnerNotStarted = errors.New("task runner not started")

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner persists submitted tasks, feeds them to a worker pool and
// records each outcome in the store.
type TaskRunner struct {
	store      TaskStore
	rehydrator Rehydrator
	queue      *TaskQueue
	pool       *WorkerPool
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
	observer   Observer

	mu      sync.Mutex
	cancel  context.CancelFunc
	monitor sync.WaitGroup
}

// NewTaskRunner creates a new TaskRunner. rehydrator may be nil, in which
// case stored tasks cannot be recovered and are marked failed on start.
func NewTaskRunner(
	store TaskStore,
	rehydrator Rehydrator,
	config TaskRunnerConfig,
	logger *slog.Logger,
) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	logger = logger.With("component", "task_runner")

	queue := NewTaskQueue(config.QueueSize, logger)
	r := &TaskRunner{
		store:      store,
		rehydrator: rehydrator,
		queue:      queue,
		pool:       NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger),
		config:     config,
		logger:     logger,
	}
	r.errHandler = func(task Task, err error) {}
	return r
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	if handler != nil {
		r.errHandler = handler
	}
}

// SetObserver registers an observer for task outcomes.
func (r *TaskRunner) SetObserver(o Observer) {
	r.observer = o
}

// Submit persists the task as pending and queues it. When the queue is
// full the stored task is marked failed so it is not retried later.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	if err := r.queue.Enqueue(task); err != nil {
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			r.logger.ErrorContext(ctx, "failed to mark unqueued task as failed",
				"task_id", task.ID(),
				"error", updateErr)
		}
		return err
	}

	return nil
}

// Start recovers unfinished tasks and begins processing.
func (r *TaskRunner) Start(ctx context.Context) error {
	if err := r.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	r.pool.Start(runCtx, r.processTask)

	r.monitor.Add(1)
	go r.stuckTaskMonitor(runCtx)

	return nil
}

// Stop cancels in-flight work and waits for the workers to exit. Tasks
// interrupted by Stop stay in processing state and are recovered on the
// next Start.
func (r *TaskRunner) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return ErrRunnerNotStarted
	}

	cancel()
	r.pool.Wait()
	r.monitor.Wait()
	r.queue.Close()
	return nil
}

// Recover loads any unfinished tasks from the store and queues them again.
func (r *TaskRunner) Recover(ctx context.Context) error {
	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	processing, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.InfoContext(ctx, "recovering unfinished tasks",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, rec := range pending {
		r.requeue(ctx, rec)
	}

	for _, rec := range processing {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending, "reset after recovery"); err != nil {
			r.logger.ErrorContext(ctx, "failed to reset processing task status",
				"task_id", rec.ID,
				"task_type", rec.Type,
				"error", err)
			continue
		}
		r.requeue(ctx, rec)
	}

	return nil
}

// requeue rebuilds a stored task and puts it back on the queue. Records that
// cannot be rebuilt are marked failed.
func (r *TaskRunner) requeue(ctx context.Context, rec Record) {
	log := r.logger.With("task_id", rec.ID, "task_type", rec.Type)

	if r.rehydrator == nil {
		r.markFailed(ctx, rec, ErrUnknownTaskType)
		return
	}

	task, err := r.rehydrator.Rehydrate(rec)
	if err != nil {
		log.ErrorContext(ctx, "failed to rebuild stored task", "error", err)
		r.markFailed(ctx, rec, err)
		return
	}

	if err := r.queue.Enqueue(task); err != nil {
		log.ErrorContext(ctx, "failed to requeue task", "error", err)
		return
	}
	log.InfoContext(ctx, "requeued task")
}

func (r *TaskRunner) markFailed(ctx context.Context, rec Record, cause error) {
	if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusFailed, cause.Error()); err != nil {
		r.logger.ErrorContext(ctx, "failed to mark task as failed",
			"task_id", rec.ID,
			"error", err)
	}
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(ctx context.Context, task Task, workerID int) {
	log := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		log.ErrorContext(ctx, "failed to update task status to processing", "error", err)
		return
	}

	log.InfoContext(ctx, "processing task")
	start := time.Now()
	err := task.Execute(ctx)
	elapsed := time.Since(start)

	// Shutdown interrupted the task; leave it in processing for recovery.
	if err != nil && ctx.Err() != nil {
		log.WarnContext(ctx, "task interrupted by shutdown", "error", err)
		return
	}

	// Status updates use a fresh context so they survive a shutdown that
	// begins right after Execute returns.
	storeCtx := context.WithoutCancel(ctx)

	if err != nil {
		log.ErrorContext(ctx, "task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			log.ErrorContext(ctx, "failed to update task status to failed", "error", updateErr)
		}
		r.notify(task, TaskStatusFailed, elapsed)
		r.errHandler(task, err)
		return
	}

	log.InfoContext(ctx, "task completed successfully", "duration_ms", elapsed.Milliseconds())
	if updateErr := r.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		log.ErrorContext(ctx, "failed to update task status to completed", "error", updateErr)
	}
	r.notify(task, TaskStatusCompleted, elapsed)
}

func (r *TaskRunner) notify(task Task, status TaskStatus, d time.Duration) {
	if r.observer != nil {
		r.observer.TaskFinished(task.Type(), status, d)
	}
}

// stuckTaskMonitor periodically resets tasks that have been processing for
// longer than StuckTaskAge and queues them again.
func (r *TaskRunner) stuckTaskMonitor(ctx context.Context) {
	defer r.monitor.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			r.resetStuckTasks(ctx)
		}
	}
}

func (r *TaskRunner) resetStuckTasks(ctx context.Context) {
	stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to check for stuck tasks", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.InfoContext(ctx, "found stuck tasks", "count", len(stuck))
	for _, rec := range stuck {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending,
			"reset after being stuck in processing state"); err != nil {
			r.logger.ErrorContext(ctx, "failed to reset stuck task status",
				"task_id", rec.ID,
				"error", err)
			continue
		}
		r.requeue(ctx, rec)
	}
}
