package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// VocabularyGenerationTaskFactory creates VocabularyGenerationTask instances
// and rebuilds them from stored records.
type VocabularyGenerationTaskFactory struct {
	requests   GenerationRequestService
	generator  Generator
	vocabulary VocabularyService
	logger     *slog.Logger
}

var _ Rehydrator = (*VocabularyGenerationTaskFactory)(nil)

// NewVocabularyGenerationTaskFactory creates a new factory.
func NewVocabularyGenerationTaskFactory(
	requests GenerationRequestService,
	generator Generator,
	vocabulary VocabularyService,
	logger *slog.Logger,
) *VocabularyGenerationTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &VocabularyGenerationTaskFactory{
		requests:   requests,
		generator:  generator,
		vocabulary: vocabulary,
		logger:     logger.With("component", "vocabulary_generation_task_factory"),
	}
}

// CreateTask creates a new task for the generation request.
func (f *VocabularyGenerationTaskFactory) CreateTask(requestID uuid.UUID) (Task, error) {
	return NewVocabularyGenerationTask(requestID, f.requests, f.generator, f.vocabulary, f.logger)
}

// Rehydrate implements Rehydrator.
func (f *VocabularyGenerationTaskFactory) Rehydrate(rec Record) (Task, error) {
	if rec.Type != TaskTypeVocabularyGeneration {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, rec.Type)
	}

	var payload vocabularyGenerationPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", rec.Type, err)
	}

	return newVocabularyGenerationTask(rec.ID, payload.RequestID, f.requests, f.generator, f.vocabulary, f.logger)
}
