package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
)

// ItemStore defines the interface for vocabulary item persistence.
type ItemStore interface {
	// Create saves a new item.
	// Returns ErrOxfordIndexExists if a catalogue item already uses the index.
	Create(ctx context.Context, item *domain.VocabularyItem) error

	// CreateMultiple saves several items. Implementations should be called
	// inside a transaction so that either all items are saved or none.
	CreateMultiple(ctx context.Context, items []*domain.VocabularyItem) error

	// GetByID retrieves an item by ID.
	// Returns ErrItemNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error)

	// GetByIDs retrieves the items with the given IDs. Missing IDs are skipped.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.VocabularyItem, error)

	// ListByOxfordRange returns catalogue items whose index lies in [start, end],
	// ordered by index.
	ListByOxfordRange(ctx context.Context, start, end int) ([]*domain.VocabularyItem, error)

	// ListByCategory returns up to limit items in the category, oldest first.
	ListByCategory(ctx context.Context, category domain.Category, limit int) ([]*domain.VocabularyItem, error)

	// GetNextUnseen returns the catalogue item with the lowest Oxford index
	// for which the user has no memory state.
	// Returns ErrItemNotFound when the user has seen the whole catalogue.
	GetNextUnseen(ctx context.Context, userID uuid.UUID) (*domain.VocabularyItem, error)

	// Count returns the number of items in the store.
	Count(ctx context.Context) (int, error)

	// Delete removes an item and its memory states.
	// Returns ErrItemNotFound if the item does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns an ItemStore bound to the given transaction.
	WithTx(tx *sql.Tx) ItemStore
}
