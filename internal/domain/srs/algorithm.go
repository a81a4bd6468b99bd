package srs

import (
	"math"
	"time"

	"github.com/phrazzld/vocabweave-api/internal/domain"
)

const day = 24 * time.Hour

// schedule computes the memory state that results from grading state at now.
//
// Parameters:
//   - state: The current memory state, or domain.NewMemoryState() for an unseen item
//   - grade: The learner's recall grade (Again, Hard, Good, Easy)
//   - now: The instant of the review, supplied by the caller
//   - params: Configuration parameters for the scheduler
//
// Returns:
//   - The new memory state, never sharing memory with the input
//   - An InvalidGradeError, InvalidStateError or ErrOutOfOrderReview; no state is returned with an error
//
// Algorithm behavior:
//   - Good and Easy on a never-reviewed state set stability to params.BootstrapStability
//   - Later successes grow stability by (grade-3) * GrowthFactor * (daysSince+1)^-GrowthDecay,
//     so Good leaves it unchanged and longer gaps give diminishing extra growth
//   - Again and Hard shrink stability by LapseFactor, floored at StabilityFloor
//   - Difficulty moves by DifficultyDelta[grade] and is clamped to [MinDifficulty, MaxDifficulty]
//   - Stability is rounded to StabilityPrecision decimal places
func schedule(
	state domain.MemoryState,
	grade domain.Grade,
	now time.Time,
	params *Params,
) (domain.MemoryState, error) {
	if !grade.Valid() {
		return domain.MemoryState{}, &InvalidGradeError{Grade: grade}
	}

	if err := validateState(state, params); err != nil {
		return domain.MemoryState{}, err
	}

	if state.LastReviewedAt != nil && now.Before(*state.LastReviewedAt) {
		return domain.MemoryState{}, ErrOutOfOrderReview
	}

	stability := nextStability(state, grade, elapsedDays(state, now), params)
	difficulty := clamp(state.Difficulty+params.DifficultyDelta[grade], params.MinDifficulty, params.MaxDifficulty)

	reviewedAt := now
	return domain.MemoryState{
		Stability:      stability,
		Difficulty:     difficulty,
		LastReviewedAt: &reviewedAt,
		ReviewCount:    state.ReviewCount + 1,
	}, nil
}

// nextStability applies the success or lapse branch and rounds the result.
func nextStability(state domain.MemoryState, grade domain.Grade, daysSince float64, params *Params) float64 {
	var s float64
	switch {
	case grade.IsSuccess() && state.ReviewCount == 0:
		s = params.BootstrapStability
	case grade.IsSuccess():
		confidence := float64(grade - domain.GradeGood)
		s = state.Stability * (1 + confidence*params.GrowthFactor*math.Pow(daysSince+1, -params.GrowthDecay))
	default:
		s = math.Max(params.StabilityFloor, state.Stability*params.LapseFactor)
	}

	s = roundTo(s, params.StabilityPrecision)
	return clamp(s, params.StabilityFloor, params.MaxStability)
}

// elapsedDays returns fractional days since the last review, or 0 for a
// state that has never been reviewed.
func elapsedDays(state domain.MemoryState, now time.Time) float64 {
	if state.ReviewCount == 0 || state.LastReviewedAt == nil {
		return 0
	}
	return math.Max(0, float64(now.Sub(*state.LastReviewedAt))/float64(day))
}

// validateState rejects states that could not have been produced by the
// scheduler so persistence bugs surface instead of being clamped away.
func validateState(state domain.MemoryState, params *Params) error {
	if math.IsNaN(state.Stability) || math.IsInf(state.Stability, 0) || state.Stability <= 0 {
		return &InvalidStateError{Field: "stability", Value: state.Stability, Reason: "must be a positive number"}
	}

	if state.Stability > params.MaxStability {
		return &InvalidStateError{Field: "stability", Value: state.Stability, Reason: "exceeds the stability cap"}
	}

	if math.IsNaN(state.Difficulty) ||
		state.Difficulty < params.MinDifficulty ||
		state.Difficulty > params.MaxDifficulty {
		return &InvalidStateError{Field: "difficulty", Value: state.Difficulty, Reason: "must be within bounds"}
	}

	if state.ReviewCount < 0 {
		return &InvalidStateError{Field: "review_count", Value: state.ReviewCount, Reason: "must not be negative"}
	}

	if state.ReviewCount > 0 && state.LastReviewedAt == nil {
		return &InvalidStateError{Field: "last_reviewed_at", Value: nil, Reason: "must be set once reviewed"}
	}

	return nil
}

// retrievability estimates recall probability as 2^(-daysSince/stability).
// An item that has never been reviewed has nothing to recall.
func retrievability(state domain.MemoryState, now time.Time) float64 {
	if state.LastReviewedAt == nil || state.Stability <= 0 {
		return 0
	}

	days := math.Max(0, float64(now.Sub(*state.LastReviewedAt))/float64(day))
	return math.Pow(2, -days/state.Stability)
}

// dueAt is the last review plus stability days.
func dueAt(state domain.MemoryState) (time.Time, bool) {
	if state.LastReviewedAt == nil {
		return time.Time{}, false
	}
	return state.LastReviewedAt.Add(daysToDuration(state.Stability)), true
}

// daysToDuration saturates at the longest representable Duration.
func daysToDuration(days float64) time.Duration {
	ns := days * float64(day)
	switch {
	case math.IsNaN(ns) || ns <= 0:
		return 0
	case ns >= math.MaxInt64:
		return math.MaxInt64
	}
	return time.Duration(ns)
}

func isDue(state domain.MemoryState, now time.Time) bool {
	due, ok := dueAt(state)
	if !ok {
		return true
	}
	return !now.Before(due)
}

func isMastered(state domain.MemoryState, threshold float64) bool {
	return state.ReviewCount > 0 && state.Stability > threshold
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
