package task

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newHandlerUnderTest() (*TaskFactoryEventHandler, *mockSubmitter) {
	factory := NewVocabularyGenerationTaskFactory(
		&mockRequestService{}, &mockGenerator{}, &mockVocabularyService{}, discardLogger())
	submitter := &mockSubmitter{}
	return NewTaskFactoryEventHandler(factory, submitter, discardLogger()), submitter
}

func TestTaskFactoryEventHandler(t *testing.T) {
	t.Parallel()

	t.Run("submits generation task", func(t *testing.T) {
		t.Parallel()
		handler, submitter := newHandlerUnderTest()
		requestID := uuid.New()

		event, err := events.NewTaskRequestEvent(events.TypeVocabularyGeneration,
			events.VocabularyGenerationPayload{RequestID: requestID})
		require.NoError(t, err)

		submitter.On("Submit", mock.Anything, mock.MatchedBy(func(t Task) bool {
			g, ok := t.(*VocabularyGenerationTask)
			return ok && g.RequestID() == requestID
		})).Return(nil)

		require.NoError(t, handler.HandleEvent(context.Background(), event))
		submitter.AssertExpectations(t)
	})

	t.Run("ignores other event types", func(t *testing.T) {
		t.Parallel()
		handler, submitter := newHandlerUnderTest()

		event, err := events.NewTaskRequestEvent("something_else", nil)
		require.NoError(t, err)

		require.NoError(t, handler.HandleEvent(context.Background(), event))
		submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("bad payload", func(t *testing.T) {
		t.Parallel()
		handler, _ := newHandlerUnderTest()
		event := &events.TaskRequestEvent{ID: uuid.New(), Type: events.TypeVocabularyGeneration, Payload: []byte("[")}

		assert.ErrorContains(t, handler.HandleEvent(context.Background(), event), "failed to unmarshal payload")
	})

	t.Run("nil request id", func(t *testing.T) {
		t.Parallel()
		handler, _ := newHandlerUnderTest()
		event, err := events.NewTaskRequestEvent(events.TypeVocabularyGeneration, events.VocabularyGenerationPayload{})
		require.NoError(t, err)

		assert.ErrorIs(t, handler.HandleEvent(context.Background(), event), ErrEmptyRequestID)
	})

	t.Run("submit failure", func(t *testing.T) {
		t.Parallel()
		handler, submitter := newHandlerUnderTest()
		event, err := events.NewTaskRequestEvent(events.TypeVocabularyGeneration,
			events.VocabularyGenerationPayload{RequestID: uuid.New()})
		require.NoError(t, err)

		submitter.On("Submit", mock.Anything, mock.Anything).Return(ErrQueueFull)
		err = handler.HandleEvent(context.Background(), event)
		assert.True(t, errors.Is(err, ErrQueueFull))
	})
}
