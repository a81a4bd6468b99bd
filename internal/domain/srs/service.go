// Package srs implements the spaced repetition scheduler. It turns a
// learner's grade for a vocabulary item into the item's next memory state
// and answers the derived questions the rest of the application asks:
// how likely is recall right now, when is the item due, and is it mastered.
//
// All functions are pure. The current time is always supplied by the caller
// and no state is kept between calls, so a Service is safe for concurrent use.
// Callers are responsible for applying reviews of the same item in order.
package srs

import (
	"time"

	"github.com/phrazzld/vocabweave-api/internal/domain"
)

// Service defines the interface for scheduling operations.
type Service interface {
	// Schedule computes the memory state after grading state at now.
	//
	// It fails with an InvalidGradeError when grade is outside Again..Easy,
	// an InvalidStateError when state violates an invariant, and
	// ErrOutOfOrderReview when now precedes the last review. The input is
	// never modified.
	Schedule(state domain.MemoryState, grade domain.Grade, now time.Time) (domain.MemoryState, error)

	// Retrievability estimates the probability of recall at now, in [0, 1].
	Retrievability(state domain.MemoryState, now time.Time) float64

	// DueAt returns when the item should next be reviewed. The boolean is
	// false for an item that has never been reviewed.
	DueAt(state domain.MemoryState) (time.Time, bool)

	// IsDue reports whether the item should be reviewed at now. Unreviewed
	// items are always due.
	IsDue(state domain.MemoryState, now time.Time) bool

	// IsMastered reports whether the item has been reviewed and its
	// stability exceeds the mastery threshold.
	IsMastered(state domain.MemoryState) bool

	// Params returns a copy of the parameters in use.
	Params() Params
}

// defaultService implements the Service interface
type defaultService struct {
	params *Params
}

var _ Service = (*defaultService)(nil)

// NewDefaultService creates a new scheduler service with default parameters
func NewDefaultService() (Service, error) {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a new scheduler service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, ErrNilParams
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{params: params}, nil
}

// Schedule implements Service.Schedule
func (s *defaultService) Schedule(
	state domain.MemoryState,
	grade domain.Grade,
	now time.Time,
) (domain.MemoryState, error) {
	return schedule(state, grade, now, s.params)
}

// Retrievability implements Service.Retrievability
func (s *defaultService) Retrievability(state domain.MemoryState, now time.Time) float64 {
	return retrievability(state, now)
}

// DueAt implements Service.DueAt
func (s *defaultService) DueAt(state domain.MemoryState) (time.Time, bool) {
	return dueAt(state)
}

// IsDue implements Service.IsDue
func (s *defaultService) IsDue(state domain.MemoryState, now time.Time) bool {
	return isDue(state, now)
}

// IsMastered implements Service.IsMastered
func (s *defaultService) IsMastered(state domain.MemoryState) bool {
	return isMastered(state, s.params.MasteryThreshold)
}

// Params implements Service.Params
func (s *defaultService) Params() Params {
	p := *s.params
	p.DifficultyDelta = make(map[domain.Grade]float64, len(s.params.DifficultyDelta))
	for g, d := range s.params.DifficultyDelta {
		p.DifficultyDelta[g] = d
	}
	return p
}
