// Package review schedules learner reviews. It ties the srs scheduler to
// the item, item state and review log stores, persisting every grading in
// one transaction.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/domain/srs"
)

// ReviewItem is an item paired with the learner's memory of it.
type ReviewItem struct {
	Item           *domain.VocabularyItem `json:"item"`
	State          *domain.UserItemState  `json:"state"`
	Retrievability float64                `json:"retrievability"`
	DueAt          *time.Time             `json:"due_at,omitempty"`
}

// ReviewService provides the review loop for a learner.
type ReviewService interface {
	// SubmitGrade applies grade to the learner's state for the item and
	// returns the persisted result.
	//
	// This method performs several operations within a single transaction:
	// 1. Verifies the item exists
	// 2. Locks the learner's state, creating the default state if missing
	// 3. Schedules the next review with the srs scheduler
	// 4. Saves the state with its next review time
	// 5. Appends a review log entry
	//
	// Returns ErrItemNotFound, ErrInvalidGrade or ErrOutOfOrderReview for
	// expected failures; anything else is wrapped in a ServiceError.
	SubmitGrade(ctx context.Context, userID, itemID uuid.UUID, grade domain.Grade) (*domain.UserItemState, error)

	// GetNextItem returns the most overdue item, falling back to the earliest
	// item the learner has never seen. Returns ErrNoItemsDue when there is
	// nothing to study.
	GetNextItem(ctx context.Context, userID uuid.UUID) (*ReviewItem, error)

	// ListDue returns up to limit due items, most overdue first.
	ListDue(ctx context.Context, userID uuid.UUID, limit int) ([]ReviewItem, error)

	// GetItemState returns the learner's state for an item. An item the
	// learner has never seen reports the default state.
	GetItemState(ctx context.Context, userID, itemID uuid.UUID) (*domain.UserItemState, error)
}

// Recorder receives a sample for every persisted review.
type Recorder interface {
	ReviewRecorded(grade domain.Grade, stability float64)
}

// Common error types for ReviewService
var (
	// ErrNoItemsDue indicates that the learner has nothing to review or learn.
	ErrNoItemsDue = errors.New("no items due for review")

	// ErrItemNotFound indicates that the item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidGrade indicates a grade outside again..easy.
	ErrInvalidGrade = srs.ErrInvalidGrade

	// ErrOutOfOrderReview indicates a review older than the last one applied.
	ErrOutOfOrderReview = srs.ErrOutOfOrderReview
)

// ServiceError wraps unexpected failures from the review service with the
// operation that produced them.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_grade", "get_next_item")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError for operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
