package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Defaults for a memory state that has never been graded.
const (
	DefaultStability  = 1.0
	DefaultDifficulty = 5.0
	MinDifficulty     = 1.0
	MaxDifficulty     = 10.0
)

// Common validation errors for UserItemState
var (
	ErrEmptyStateUserID = errors.New("item state user ID cannot be empty")
	ErrEmptyStateItemID = errors.New("item state item ID cannot be empty")
)

// MemoryState is the learner's memory model for a single item.
//
// Stability is the number of days until recall probability decays to the
// reference threshold. Difficulty is bounded to [MinDifficulty, MaxDifficulty].
// LastReviewedAt is nil until the first grading.
type MemoryState struct {
	Stability      float64    `json:"stability"`
	Difficulty     float64    `json:"difficulty"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
	ReviewCount    int        `json:"review_count"`
}

// NewMemoryState returns the state of a never-reviewed item.
func NewMemoryState() MemoryState {
	return MemoryState{
		Stability:  DefaultStability,
		Difficulty: DefaultDifficulty,
	}
}

// Reviewed reports whether the state has been graded at least once.
func (m MemoryState) Reviewed() bool {
	return m.LastReviewedAt != nil
}

// UserItemState binds a MemoryState to a user and an item for persistence.
// NextReviewAt is derived from the memory state when it is saved so stores
// can query due items without recomputing the schedule.
type UserItemState struct {
	UserID uuid.UUID `json:"user_id"`
	ItemID uuid.UUID `json:"item_id"`
	MemoryState
	NextReviewAt *time.Time `json:"next_review_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUserItemState creates the default state for a user encountering an item
// for the first time at now.
func NewUserItemState(userID, itemID uuid.UUID, now time.Time) (*UserItemState, error) {
	now = now.UTC()
	state := &UserItemState{
		UserID:      userID,
		ItemID:      itemID,
		MemoryState: NewMemoryState(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	return state, nil
}

// Validate checks the identifiers only. Numeric invariants of the memory
// state belong to the scheduler, which rejects corrupt states on entry.
func (s *UserItemState) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyStateUserID
	}

	if s.ItemID == uuid.Nil {
		return ErrEmptyStateItemID
	}

	return nil
}
