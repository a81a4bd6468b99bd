package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/events"
)

// TaskFactory creates a task for a generation request.
type TaskFactory interface {
	CreateTask(requestID uuid.UUID) (Task, error)
}

// TaskSubmitter accepts tasks for background execution.
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler turns vocabulary generation events into tasks
// and submits them to the runner.
type TaskFactoryEventHandler struct {
	factory TaskFactory
	runner  TaskSubmitter
	logger  *slog.Logger
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// NewTaskFactoryEventHandler creates a new event handler.
func NewTaskFactoryEventHandler(factory TaskFactory, runner TaskSubmitter, logger *slog.Logger) *TaskFactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent creates and submits a task. Events of other types are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	log := h.logger.With("event_id", event.ID, "event_type", event.Type)

	if event.Type != events.TypeVocabularyGeneration {
		log.DebugContext(ctx, "ignoring event with unsupported type")
		return nil
	}

	var payload events.VocabularyGenerationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		log.ErrorContext(ctx, "failed to unmarshal payload", "error", err)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	task, err := h.factory.CreateTask(payload.RequestID)
	if err != nil {
		log.ErrorContext(ctx, "failed to create task", "error", err, "request_id", payload.RequestID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		log.ErrorContext(ctx, "failed to submit task", "error", err, "task_id", task.ID())
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.InfoContext(ctx, "task created and submitted",
		"task_id", task.ID(),
		"request_id", payload.RequestID)
	return nil
}
