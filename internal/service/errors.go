package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/store"
)

// Common service errors. Callers match them with errors.Is; the API layer
// maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a resource belongs to a different learner.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrItemNotFound indicates that the vocabulary item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrRequestNotFound indicates that the generation request does not exist.
	ErrRequestNotFound = errors.New("generation request not found")

	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists indicates the email is already registered.
	ErrEmailExists = errors.New("email already registered")

	// ErrNoItems is returned when an operation needs at least one item.
	ErrNoItems = errors.New("no items provided")
)

// ServiceError wraps unexpected failures with the service and operation
// that produced them.
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Operation)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError maps store sentinels to their service equivalents and
// wraps everything else. It returns nil for a nil err.
func NewServiceError(service, operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotOwned),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrRequestNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrEmailExists),
		errors.Is(err, ErrNoItems),
		errors.Is(err, domain.ErrValidation):
		return err
	case errors.Is(err, store.ErrItemNotFound):
		return ErrItemNotFound
	case errors.Is(err, store.ErrGenerationRequestNotFound):
		return ErrRequestNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, store.ErrEmailExists):
		return ErrEmailExists
	}
	return &ServiceError{Service: service, Operation: operation, Err: err}
}
