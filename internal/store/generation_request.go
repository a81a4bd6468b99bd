package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
)

// GenerationRequestStore defines the interface for generation request persistence.
type GenerationRequestStore interface {
	// Create saves a new generation request.
	Create(ctx context.Context, req *domain.GenerationRequest) error

	// GetByID retrieves a request by ID.
	// Returns ErrGenerationRequestNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error)

	// UpdateStatus changes the status of a request.
	// Returns ErrGenerationRequestNotFound if it does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GenerationStatus) error

	// WithTx returns a GenerationRequestStore bound to the given transaction.
	WithTx(tx *sql.Tx) GenerationRequestStore
}
