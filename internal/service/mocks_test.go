package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/events"
	"github.com/phrazzld/vocabweave-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTxDB returns a sqlmock database whose expectations are checked when
// the test ends.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, m.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, m
}

type mockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*mockUserStore)(nil)

func (m *mockUserStore) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*domain.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*domain.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserStore) WithTx(*sql.Tx) store.UserStore {
	return m
}

type mockRequestStore struct {
	mock.Mock
}

var _ store.GenerationRequestStore = (*mockRequestStore)(nil)

func (m *mockRequestStore) Create(ctx context.Context, req *domain.GenerationRequest) error {
	return m.Called(ctx, req).Error(0)
}

// GetByID accepts either a request or a func(uuid.UUID) *domain.GenerationRequest
// as the first return value, the latter for requests created during the test.
func (m *mockRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	args := m.Called(ctx, id)
	switch r := args.Get(0).(type) {
	case *domain.GenerationRequest:
		return r, args.Error(1)
	case func(uuid.UUID) *domain.GenerationRequest:
		return r(id), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GenerationStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockRequestStore) WithTx(*sql.Tx) store.GenerationRequestStore {
	return m
}

type mockEmitter struct {
	mock.Mock
}

var _ events.EventEmitter = (*mockEmitter)(nil)

func (m *mockEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	return m.Called(ctx, event).Error(0)
}
