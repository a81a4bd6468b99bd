package task

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryTaskStore is an in-memory TaskStore safe for use from workers.
type memoryTaskStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
	saveErr error
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{records: make(map[uuid.UUID]*Record)}
}

func (s *memoryTaskStore) SaveTask(_ context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	now := time.Now().UTC()
	s.records[t.ID()] = &Record{
		ID: t.ID(), Type: t.Type(), Payload: t.Payload(), Status: t.Status(),
		CreatedAt: now, UpdatedAt: now,
	}
	return nil
}

func (s *memoryTaskStore) UpdateTaskStatus(_ context.Context, id uuid.UUID, status TaskStatus, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return errors.New("task not found")
	}
	rec.Status = status
	rec.ErrorMessage = msg
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryTaskStore) byStatus(status TaskStatus, olderThan time.Duration) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Record{}
	for _, rec := range s.records {
		if rec.Status != status {
			continue
		}
		if olderThan > 0 && time.Since(rec.UpdatedAt) < olderThan {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

func (s *memoryTaskStore) GetPendingTasks(context.Context) ([]Record, error) {
	return s.byStatus(TaskStatusPending, 0), nil
}

func (s *memoryTaskStore) GetProcessingTasks(_ context.Context, olderThan time.Duration) ([]Record, error) {
	return s.byStatus(TaskStatusProcessing, olderThan), nil
}

func (s *memoryTaskStore) WithTx(*sql.Tx) TaskStore { return s }

func (s *memoryTaskStore) put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = &rec
}

func (s *memoryTaskStore) get(id uuid.UUID) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// funcTask runs fn when executed.
type funcTask struct {
	id  uuid.UUID
	typ string
	fn  func(ctx context.Context) error
}

func newFuncTask(fn func(ctx context.Context) error) *funcTask {
	return &funcTask{id: uuid.New(), typ: "test", fn: fn}
}

func (t *funcTask) ID() uuid.UUID { return t.id }
func (t *funcTask) Type() string { return t.typ }
func (t *funcTask) Payload() []byte { return []byte(`{}`) }
func (t *funcTask) Status() TaskStatus { return TaskStatusPending }
func (t *funcTask) Execute(ctx context.Context) error { return t.fn(ctx) }

// funcRehydrator rebuilds every record as a funcTask running fn.
type funcRehydrator struct {
	fn func(ctx context.Context) error
}

func (r funcRehydrator) Rehydrate(rec Record) (Task, error) {
	if rec.Type != "test" {
		return nil, ErrUnknownTaskType
	}
	return &funcTask{id: rec.ID, typ: rec.Type, fn: r.fn}, nil
}

type mockRequestService struct{ mock.Mock }

func (m *mockRequestService) GetRequest(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	args := m.Called(ctx, id)
	if req, ok := args.Get(0).(*domain.GenerationRequest); ok {
		return req, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestService) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status domain.GenerationStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) GenerateItems(
	ctx context.Context,
	theme string,
	category domain.Category,
) ([]*domain.VocabularyItem, error) {
	args := m.Called(ctx, theme, category)
	if items, ok := args.Get(0).([]*domain.VocabularyItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVocabularyService struct{ mock.Mock }

func (m *mockVocabularyService) CreateItems(ctx context.Context, userID uuid.UUID, items []*domain.VocabularyItem) error {
	return m.Called(ctx, userID, items).Error(0)
}

type mockSubmitter struct{ mock.Mock }

func (m *mockSubmitter) Submit(ctx context.Context, t Task) error {
	return m.Called(ctx, t).Error(0)
}

type countingObserver struct {
	mu       sync.Mutex
	statuses []TaskStatus
}

func (o *countingObserver) TaskFinished(_ string, status TaskStatus, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *countingObserver) seen() []TaskStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]TaskStatus(nil), o.statuses...)
}
