package generation

import (
	"context"

	"github.com/phrazzld/vocabweave-api/internal/domain"
)

// Generator produces vocabulary items for a theme.
type Generator interface {
	// GenerateItems returns new, unsaved items about theme, each tagged with
	// category. Items carry fresh IDs and no Oxford index.
	//
	// Errors wrap one of the sentinels in this package so callers can decide
	// whether a retry makes sense.
	GenerateItems(ctx context.Context, theme string, category domain.Category) ([]*domain.VocabularyItem, error)
}
