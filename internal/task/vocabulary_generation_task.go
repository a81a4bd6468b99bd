package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
)

// Common errors
var (
	ErrNilRequestService    = errors.New("generation request service cannot be nil")
	ErrNilGenerator         = errors.New("generator cannot be nil")
	ErrNilVocabularyService = errors.New("vocabulary service cannot be nil")
	ErrEmptyRequestID       = errors.New("generation request ID cannot be empty")
)

// GenerationRequestService is the part of the generation service the task
// needs to read and advance a request.
type GenerationRequestService interface {
	GetRequest(ctx context.Context, requestID uuid.UUID) (*domain.GenerationRequest, error)
	UpdateRequestStatus(ctx context.Context, requestID uuid.UUID, status domain.GenerationStatus) error
}

// Generator produces themed vocabulary. It mirrors generation.Generator so
// the task package does not depend on platform code.
type Generator interface {
	GenerateItems(ctx context.Context, theme string, category domain.Category) ([]*domain.VocabularyItem, error)
}

// VocabularyService saves generated items for a learner.
type VocabularyService interface {
	// CreateItems saves the items and the learner's default memory states atomically.
	CreateItems(ctx context.Context, userID uuid.UUID, items []*domain.VocabularyItem) error
}

// vocabularyGenerationPayload is the serialized data stored with the task
type vocabularyGenerationPayload struct {
	RequestID uuid.UUID `json:"request_id"`
}

// VocabularyGenerationTask generates items for one GenerationRequest and
// stores them in the requesting learner's study set.
type VocabularyGenerationTask struct {
	id         uuid.UUID
	requestID  uuid.UUID
	requests   GenerationRequestService
	generator  Generator
	vocabulary VocabularyService
	logger     *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

var _ Task = (*VocabularyGenerationTask)(nil)

// NewVocabularyGenerationTask creates a new task with a fresh ID.
func NewVocabularyGenerationTask(
	requestID uuid.UUID,
	requests GenerationRequestService,
	generator Generator,
	vocabulary VocabularyService,
	logger *slog.Logger,
) (*VocabularyGenerationTask, error) {
	return newVocabularyGenerationTask(uuid.New(), requestID, requests, generator, vocabulary, logger)
}

func newVocabularyGenerationTask(
	id, requestID uuid.UUID,
	requests GenerationRequestService,
	generator Generator,
	vocabulary VocabularyService,
	logger *slog.Logger,
) (*VocabularyGenerationTask, error) {
	if requests == nil {
		return nil, ErrNilRequestService
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if vocabulary == nil {
		return nil, ErrNilVocabularyService
	}
	if requestID == uuid.Nil {
		return nil, ErrEmptyRequestID
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &VocabularyGenerationTask{
		id:         id,
		requestID:  requestID,
		requests:   requests,
		generator:  generator,
		vocabulary: vocabulary,
		logger:     logger.With("task_type", TaskTypeVocabularyGeneration, "request_id", requestID),
		status:     TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *VocabularyGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *VocabularyGenerationTask) Type() string {
	return TaskTypeVocabularyGeneration
}

// RequestID returns the generation request the task processes.
func (t *VocabularyGenerationTask) RequestID() uuid.UUID {
	return t.requestID
}

// Payload returns the task data as JSON.
func (t *VocabularyGenerationTask) Payload() []byte {
	// Marshalling a struct holding a single UUID cannot fail.
	data, _ := json.Marshal(vocabularyGenerationPayload{RequestID: t.requestID})
	return data
}

// Status returns the current task status
func (t *VocabularyGenerationTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *VocabularyGenerationTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Execute loads the request, generates items for its theme, saves them for
// the requesting learner and moves the request to completed. Any failure
// after the request was loaded moves it to failed.
func (t *VocabularyGenerationTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)
	t.logger.InfoContext(ctx, "starting vocabulary generation task")

	if err := ctx.Err(); err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	req, err := t.requests.GetRequest(ctx, t.requestID)
	if err != nil {
		t.setStatus(TaskStatusFailed)
		t.logger.ErrorContext(ctx, "failed to retrieve generation request", "error", err)
		return fmt.Errorf("failed to retrieve generation request: %w", err)
	}

	if err := t.requests.UpdateRequestStatus(ctx, t.requestID, domain.GenerationStatusProcessing); err != nil {
		t.setStatus(TaskStatusFailed)
		t.logger.ErrorContext(ctx, "failed to update request status to processing", "error", err)
		return fmt.Errorf("failed to update request status to processing: %w", err)
	}

	items, err := t.generator.GenerateItems(ctx, req.Theme, req.Category)
	if err != nil {
		return t.fail(ctx, "failed to generate vocabulary", err)
	}
	t.logger.InfoContext(ctx, "vocabulary generated", "count", len(items))

	if len(items) > 0 {
		if err := t.vocabulary.CreateItems(ctx, req.UserID, items); err != nil {
			return t.fail(ctx, "failed to save generated vocabulary", err)
		}
	} else {
		t.logger.WarnContext(ctx, "generation completed but produced no items")
	}

	if err := t.requests.UpdateRequestStatus(ctx, t.requestID, domain.GenerationStatusCompleted); err != nil {
		// The items are saved; a stale status is preferable to failing the task.
		t.logger.ErrorContext(ctx, "failed to update request final status",
			"error", err,
			"items_generated", len(items))
	}

	t.setStatus(TaskStatusCompleted)
	t.logger.InfoContext(ctx, "vocabulary generation task completed", "items_generated", len(items))
	return nil
}

func (t *VocabularyGenerationTask) fail(ctx context.Context, msg string, err error) error {
	if updateErr := t.requests.UpdateRequestStatus(context.WithoutCancel(ctx), t.requestID, domain.GenerationStatusFailed); updateErr != nil {
		t.logger.ErrorContext(ctx, "failed to mark request as failed", "error", updateErr)
	}
	t.setStatus(TaskStatusFailed)
	t.logger.ErrorContext(ctx, msg, "error", err)
	return fmt.Errorf("%s: %w", msg, err)
}
