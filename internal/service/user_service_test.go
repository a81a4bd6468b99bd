package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/service/auth"
	"github.com/phrazzld/vocabweave-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct horse battery staple"

func existingUser(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:             uuid.New(),
		Email:          "learner@example.com",
		HashedPassword: string(hash),
		CreatedAt:      time.Now().Add(-24 * time.Hour),
		UpdatedAt:      time.Now().Add(-24 * time.Hour),
	}
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		db, sqlMock := newTxDB(t)
		users := &mockUserStore{}
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@example.com" && u.Password == testPassword
		})).Return(nil)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		svc := NewUserService(users, nil, db, nil)
		user, err := svc.CreateUser(context.Background(), " new@example.com ", testPassword)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		users.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()

		db, sqlMock := newTxDB(t)
		users := &mockUserStore{}
		users.On("Create", mock.Anything, mock.Anything).Return(store.ErrEmailExists)
		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		svc := NewUserService(users, nil, db, nil)
		_, err := svc.CreateUser(context.Background(), "dup@example.com", testPassword)
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("invalid input never reaches the store", func(t *testing.T) {
		t.Parallel()

		db, _ := newTxDB(t)
		users := &mockUserStore{}
		svc := NewUserService(users, nil, db, nil)

		_, err := svc.CreateUser(context.Background(), "not-an-email", testPassword)
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = svc.CreateUser(context.Background(), "ok@example.com", "short")
		assert.ErrorIs(t, err, domain.ErrValidation)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()

	user := existingUser(t)
	users := &mockUserStore{}
	users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, store.ErrUserNotFound)
	users.On("GetByEmail", mock.Anything, "broken@example.com").Return(nil, errors.New("connection refused"))

	db, _ := newTxDB(t)
	svc := NewUserService(users, auth.NewBcryptVerifier(), db, nil)
	ctx := context.Background()

	got, err := svc.Authenticate(ctx, user.Email, testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, user.Email, "wrong password here")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "broken@example.com", testPassword)
	var svcErr *ServiceError
	assert.ErrorAs(t, err, &svcErr)
}

func TestUserService_UpdateUserEmail(t *testing.T) {
	t.Parallel()

	t.Run("keeps the stored hash", func(t *testing.T) {
		t.Parallel()

		user := existingUser(t)
		hash := user.HashedPassword
		db, sqlMock := newTxDB(t)
		users := &mockUserStore{}
		users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		users.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.ID == user.ID && u.Email == "moved@example.com" && u.HashedPassword == hash
		})).Return(nil)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		svc := NewUserService(users, nil, db, nil)
		require.NoError(t, svc.UpdateUserEmail(context.Background(), user.ID, "moved@example.com"))
		users.AssertExpectations(t)
	})

	t.Run("user not found", func(t *testing.T) {
		t.Parallel()

		db, sqlMock := newTxDB(t)
		users := &mockUserStore{}
		id := uuid.New()
		users.On("GetByID", mock.Anything, id).Return(nil, store.ErrUserNotFound)
		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		svc := NewUserService(users, nil, db, nil)
		err := svc.UpdateUserEmail(context.Background(), id, "moved@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("invalid email", func(t *testing.T) {
		t.Parallel()

		user := existingUser(t)
		db, sqlMock := newTxDB(t)
		users := &mockUserStore{}
		users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		svc := NewUserService(users, nil, db, nil)
		err := svc.UpdateUserEmail(context.Background(), user.ID, "nope")
		assert.ErrorIs(t, err, domain.ErrValidation)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestUserService_UpdateUserPassword(t *testing.T) {
	t.Parallel()

	user := existingUser(t)
	db, sqlMock := newTxDB(t)
	users := &mockUserStore{}
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Password == "a brand new passphrase"
	})).Return(nil)
	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()

	svc := NewUserService(users, nil, db, nil)
	require.NoError(t, svc.UpdateUserPassword(context.Background(), user.ID, "a brand new passphrase"))
	users.AssertExpectations(t)
}

func TestUserService_GetAndDelete(t *testing.T) {
	t.Parallel()

	user := existingUser(t)
	db, sqlMock := newTxDB(t)
	users := &mockUserStore{}
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	users.On("Delete", mock.Anything, user.ID).Return(nil)
	missing := uuid.New()
	users.On("Delete", mock.Anything, missing).Return(store.ErrUserNotFound)
	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()
	sqlMock.ExpectBegin()
	sqlMock.ExpectRollback()

	svc := NewUserService(users, nil, db, nil)
	ctx := context.Background()

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, missing), ErrUserNotFound)
}
