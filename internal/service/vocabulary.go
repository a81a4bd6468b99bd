package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/store"
)

// CatalogueEntry is one row of the Oxford 3000 word list.
type CatalogueEntry struct {
	Index       int
	Text        string
	Translation string
	Category    domain.Category
}

// VocabularyService manages vocabulary items.
type VocabularyService interface {
	// CreateItems saves the items and the learner's default memory states
	// in one transaction.
	CreateItems(ctx context.Context, userID uuid.UUID, items []*domain.VocabularyItem) error

	// GetItem retrieves an item by ID.
	GetItem(ctx context.Context, itemID uuid.UUID) (*domain.VocabularyItem, error)

	// ImportLesson stores the catalogue entries of one lesson. Entries whose
	// Oxford index is already taken are skipped. Returns the number of
	// items created.
	ImportLesson(ctx context.Context, lesson int, entries []CatalogueEntry) (int, error)
}

type vocabularyServiceImpl struct {
	db     *sql.DB
	items  store.ItemStore
	states store.ItemStateStore
	logger *slog.Logger
}

var _ VocabularyService = (*vocabularyServiceImpl)(nil)

// NewVocabularyService creates a new VocabularyService.
func NewVocabularyService(
	db *sql.DB,
	items store.ItemStore,
	states store.ItemStateStore,
	logger *slog.Logger,
) (VocabularyService, error) {
	if db == nil || items == nil || states == nil {
		return nil, &ServiceError{Service: "vocabulary", Operation: "create_service", Err: fmt.Errorf("nil dependency")}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &vocabularyServiceImpl{
		db:     db,
		items:  items,
		states: states,
		logger: logger.With("component", "vocabulary_service"),
	}, nil
}

// CreateItems implements VocabularyService.CreateItems.
func (s *vocabularyServiceImpl) CreateItems(
	ctx context.Context,
	userID uuid.UUID,
	items []*domain.VocabularyItem,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(items) == 0 {
		return ErrNoItems
	}
	if userID == uuid.Nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptyStateUserID)
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.items.WithTx(tx).CreateMultiple(ctx, items); err != nil {
			return fmt.Errorf("create items: %w", err)
		}

		states := s.states.WithTx(tx)
		for _, item := range items {
			state, err := domain.NewUserItemState(userID, item.ID, item.CreatedAt)
			if err != nil {
				return err
			}
			if err := states.Create(ctx, state); err != nil {
				return fmt.Errorf("create state for %s: %w", item.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create items",
			"error", err,
			"user_id", userID,
			"count", len(items))
		return NewServiceError("vocabulary", "create_items", err)
	}

	log.Info("items created",
		"user_id", userID,
		"count", len(items))
	return nil
}

// GetItem implements VocabularyService.GetItem.
func (s *vocabularyServiceImpl) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.VocabularyItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, NewServiceError("vocabulary", "get_item", err)
	}
	return item, nil
}

// ImportLesson implements VocabularyService.ImportLesson.
func (s *vocabularyServiceImpl) ImportLesson(ctx context.Context, lesson int, entries []CatalogueEntry) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	start, end, err := domain.LessonRange(lesson)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	items := make([]*domain.VocabularyItem, 0, len(entries))
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.Index < start || e.Index > end {
			return 0, domain.NewValidationError("index",
				fmt.Sprintf("%d is outside lesson %d (%d-%d)", e.Index, lesson, start, end))
		}
		if seen[e.Index] {
			continue
		}
		seen[e.Index] = true

		category := e.Category
		if category == "" {
			category = domain.CategoryGeneral
		}
		item, err := domain.NewCatalogueItem(e.Index, e.Text, e.Translation, category)
		if err != nil {
			return 0, fmt.Errorf("%w: entry %d: %w", domain.ErrValidation, e.Index, err)
		}
		items = append(items, item)
	}

	created := 0
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txItems := s.items.WithTx(tx)

		existing, err := txItems.ListByOxfordRange(ctx, start, end)
		if err != nil {
			return fmt.Errorf("list lesson items: %w", err)
		}
		taken := make(map[int]bool, len(existing))
		for _, item := range existing {
			if item.OxfordIndex != nil {
				taken[*item.OxfordIndex] = true
			}
		}

		fresh := items[:0:0]
		for _, item := range items {
			if !taken[*item.OxfordIndex] {
				fresh = append(fresh, item)
			}
		}
		if len(fresh) == 0 {
			return nil
		}
		if err := txItems.CreateMultiple(ctx, fresh); err != nil {
			return fmt.Errorf("create lesson items: %w", err)
		}
		created = len(fresh)
		return nil
	})
	if err != nil {
		log.Error("failed to import lesson",
			"error", err,
			"lesson", lesson)
		return 0, NewServiceError("vocabulary", "import_lesson", err)
	}

	log.Debug("lesson imported",
		"lesson", lesson,
		"created", created,
		"skipped", len(items)-created)
	return created, nil
}
