package domain

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ReviewLog is an append-only record of one grading event. IDs are ULIDs so
// logs sort by time without an extra index.
type ReviewLog struct {
	ID               string    `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	ItemID           uuid.UUID `json:"item_id"`
	Grade            Grade     `json:"grade"`
	StabilityBefore  float64   `json:"stability_before"`
	StabilityAfter   float64   `json:"stability_after"`
	DifficultyBefore float64   `json:"difficulty_before"`
	DifficultyAfter  float64   `json:"difficulty_after"`
	ReviewedAt       time.Time `json:"reviewed_at"`
}

// NewReviewLog records the transition from before to after. entropy may be
// nil, in which case ulid's default monotonic source is used.
func NewReviewLog(
	userID, itemID uuid.UUID,
	grade Grade,
	before, after MemoryState,
	reviewedAt time.Time,
	entropy io.Reader,
) (*ReviewLog, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyStateUserID
	}
	if itemID == uuid.Nil {
		return nil, ErrEmptyStateItemID
	}
	if !grade.Valid() {
		return nil, ErrInvalidGrade
	}

	var id ulid.ULID
	if entropy == nil {
		id = ulid.Make()
	} else {
		var err error
		id, err = ulid.New(ulid.Timestamp(reviewedAt), entropy)
		if err != nil {
			return nil, err
		}
	}

	return &ReviewLog{
		ID:               id.String(),
		UserID:           userID,
		ItemID:           itemID,
		Grade:            grade,
		StabilityBefore:  before.Stability,
		StabilityAfter:   after.Stability,
		DifficultyBefore: before.Difficulty,
		DifficultyAfter:  after.Difficulty,
		ReviewedAt:       reviewedAt,
	}, nil
}
