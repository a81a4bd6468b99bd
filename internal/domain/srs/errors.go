package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/vocabweave-api/internal/domain"
)

// Common errors returned by the scheduler
var (
	// ErrInvalidGrade is returned when the grade is not Again, Hard, Good or Easy.
	ErrInvalidGrade = domain.ErrInvalidGrade

	// ErrInvalidState is returned when a memory state violates an invariant.
	ErrInvalidState = errors.New("invalid memory state")

	// ErrOutOfOrderReview is returned when a review is older than the last one applied.
	ErrOutOfOrderReview = errors.New("review is older than the last review")

	// ErrNilParams is returned when a service is built without parameters.
	ErrNilParams = errors.New("srs params cannot be nil")
)

// InvalidGradeError reports the rejected grade value.
type InvalidGradeError struct {
	Grade domain.Grade
}

func (e *InvalidGradeError) Error() string {
	return fmt.Sprintf("invalid grade %d: must be between %d and %d",
		int(e.Grade), int(domain.GradeAgain), int(domain.GradeEasy))
}

// Unwrap returns ErrInvalidGrade.
func (e *InvalidGradeError) Unwrap() error {
	return ErrInvalidGrade
}

// InvalidStateError reports which field of a memory state is corrupt.
type InvalidStateError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid memory state: %s=%v %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidState.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}
