package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/service/auth"
	"github.com/phrazzld/vocabweave-api/internal/store"
)

// UserService provides learner account operations.
type UserService interface {
	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// CreateUser registers a learner. The store hashes the password.
	CreateUser(ctx context.Context, email, password string) (*domain.User, error)

	// Authenticate returns the user whose credentials match, or
	// auth.ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// UpdateUserEmail changes a learner's email address.
	UpdateUserEmail(ctx context.Context, userID uuid.UUID, newEmail string) error

	// UpdateUserPassword changes a learner's password.
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, newPassword string) error

	// DeleteUser removes a learner and, through cascading deletes, their
	// memory states and review logs.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	verifier  auth.PasswordVerifier
	db        *sql.DB
	logger    *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService. A nil verifier uses bcrypt.
func NewUserService(
	userStore store.UserStore,
	verifier auth.PasswordVerifier,
	db *sql.DB,
	logger *slog.Logger,
) *UserServiceImpl {
	if verifier == nil {
		verifier = auth.NewBcryptVerifier()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		verifier:  verifier,
		db:        db,
		logger:    logger.With("component", "user_service"),
	}
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, NewServiceError("user", "get_user", err)
	}
	return user, nil
}

// CreateUser creates a new user with the specified email and password
func (s *UserServiceImpl) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(strings.TrimSpace(email), password)
	if err != nil {
		return nil, domain.NewValidationError("user", err.Error())
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("registration with existing email", "email", email)
		} else {
			log.Error("failed to create user",
				"error", err,
				"email", email)
		}
		return nil, NewServiceError("user", "create_user", err)
	}

	log.Info("user created", "user_id", user.ID)
	return user, nil
}

// Authenticate implements UserService.Authenticate. Unknown emails and wrong
// passwords fail the same way.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrUserNotFound) {
		log.Debug("login for unknown email")
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		log.Error("failed to look up user for login", "error", err)
		return nil, NewServiceError("user", "authenticate", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			log.Error("password comparison failed", "error", err, "user_id", user.ID)
		}
		return nil, auth.ErrInvalidCredentials
	}
	return user, nil
}

// UpdateUserEmail loads the full user inside a transaction, changes the
// email and writes the user back.
func (s *UserServiceImpl) UpdateUserEmail(ctx context.Context, userID uuid.UUID, newEmail string) error {
	err := s.updateUser(ctx, userID, func(u *domain.User) {
		u.Email = strings.TrimSpace(newEmail)
	})
	return NewServiceError("user", "update_email", err)
}

// UpdateUserPassword sets the plaintext password; the store re-hashes it.
func (s *UserServiceImpl) UpdateUserPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	err := s.updateUser(ctx, userID, func(u *domain.User) {
		u.Password = newPassword
	})
	return NewServiceError("user", "update_password", err)
}

// DeleteUser deletes a user by their ID
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Delete(ctx, userID)
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Debug("failed to delete user",
			"error", err,
			"user_id", userID)
		return NewServiceError("user", "delete_user", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("user deleted", "user_id", userID)
	return nil
}

func (s *UserServiceImpl) updateUser(ctx context.Context, userID uuid.UUID, change func(*domain.User)) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.userStore.WithTx(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		change(user)
		if err := user.Validate(); err != nil {
			return domain.NewValidationError("user", err.Error())
		}
		return users.Update(ctx, user)
	})
}
