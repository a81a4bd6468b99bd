package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
)

// ItemStateStore defines the interface for per-user memory state persistence.
type ItemStateStore interface {
	// Create saves a new memory state.
	// Returns ErrDuplicate if the user already has a state for the item.
	Create(ctx context.Context, state *domain.UserItemState) error

	// Get retrieves the state for the user and item.
	// Returns ErrItemStateNotFound if the user has never encountered the item.
	// This method does NOT lock the row.
	Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.UserItemState, error)

	// GetForUpdate retrieves the state with a row-level lock. It must be
	// called inside a transaction; grading uses it to serialize concurrent
	// reviews of the same item.
	// Returns ErrItemStateNotFound if the state does not exist.
	GetForUpdate(ctx context.Context, userID, itemID uuid.UUID) (*domain.UserItemState, error)

	// Update overwrites the memory state and NextReviewAt.
	// Returns ErrItemStateNotFound if the state does not exist.
	Update(ctx context.Context, state *domain.UserItemState) error

	// ListDue returns up to limit states that are due at now: reviewed states
	// whose NextReviewAt has passed, most overdue first, followed by states
	// that were created but never reviewed.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.UserItemState, error)

	// CountDue returns how many states ListDue would return without a limit.
	CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)

	// ListForUser returns every state the user has.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserItemState, error)

	// ListForItems returns the user's states for the given items. Items the
	// user has not encountered are omitted.
	ListForItems(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]*domain.UserItemState, error)

	// WithTx returns an ItemStateStore bound to the given transaction.
	WithTx(tx *sql.Tx) ItemStateStore
}
