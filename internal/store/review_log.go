package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
)

// ReviewLogStore persists the append-only grading history.
type ReviewLogStore interface {
	// Append saves a review log entry.
	Append(ctx context.Context, log *domain.ReviewLog) error

	// ListForItem returns the most recent entries for the user and item,
	// newest first, up to limit.
	ListForItem(ctx context.Context, userID, itemID uuid.UUID, limit int) ([]*domain.ReviewLog, error)

	// WithTx returns a ReviewLogStore bound to the given transaction.
	WithTx(tx *sql.Tx) ReviewLogStore
}
