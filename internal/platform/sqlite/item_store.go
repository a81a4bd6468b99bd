package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/store"
)

// ItemStore implements store.ItemStore on SQLite.
type ItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ItemStore = (*ItemStore)(nil)

// NewItemStore creates an ItemStore.
func NewItemStore(db store.DBTX, logger *slog.Logger) *ItemStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemStore{db: db, logger: logger.With(slog.String("component", "sqlite_item_store"))}
}

// WithTx implements store.ItemStore.
func (s *ItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &ItemStore{db: tx, logger: s.logger}
}

const itemColumns = `id, text, translation, category, oxford_index, created_at, updated_at`

// Create implements store.ItemStore.
func (s *ItemStore) Create(ctx context.Context, item *domain.VocabularyItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	var oxford any
	if item.OxfordIndex != nil {
		oxford = *item.OxfordIndex
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vocabulary_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.ID.String(), item.Text, item.Translation, string(item.Category), oxford,
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt))
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, store.ErrDuplicate) && strings.Contains(err.Error(), "oxford_index") {
			return store.ErrOxfordIndexExists
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return mapped
	}
	return nil
}

// CreateMultiple implements store.ItemStore.
func (s *ItemStore) CreateMultiple(ctx context.Context, items []*domain.VocabularyItem) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	for _, item := range items {
		if err := s.Create(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// GetByID implements store.ItemStore.
func (s *ItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM vocabulary_items WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrItemNotFound
	}
	return item, mapError(err)
}

// GetByIDs implements store.ItemStore.
func (s *ItemStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.VocabularyItem, error) {
	if len(ids) == 0 {
		return []*domain.VocabularyItem{}, nil
	}
	return s.list(ctx, `SELECT `+itemColumns+` FROM vocabulary_items
		WHERE id IN (`+placeholders(len(ids))+`) ORDER BY created_at, id`, uuidArgs(ids)...)
}

// ListByOxfordRange implements store.ItemStore.
func (s *ItemStore) ListByOxfordRange(ctx context.Context, start, end int) ([]*domain.VocabularyItem, error) {
	if end < start {
		return []*domain.VocabularyItem{}, nil
	}
	return s.list(ctx, `SELECT `+itemColumns+` FROM vocabulary_items
		WHERE oxford_index BETWEEN ? AND ? ORDER BY oxford_index`, start, end)
}

// ListByCategory implements store.ItemStore.
func (s *ItemStore) ListByCategory(
	ctx context.Context,
	category domain.Category,
	limit int,
) ([]*domain.VocabularyItem, error) {
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}
	if limit <= 0 {
		return []*domain.VocabularyItem{}, nil
	}
	return s.list(ctx, `SELECT `+itemColumns+` FROM vocabulary_items
		WHERE category = ?
		ORDER BY oxford_index IS NULL, oxford_index, created_at
		LIMIT ?`, string(category), limit)
}

// GetNextUnseen implements store.ItemStore.
func (s *ItemStore) GetNextUnseen(ctx context.Context, userID uuid.UUID) (*domain.VocabularyItem, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM vocabulary_items i
		WHERE NOT EXISTS (
			SELECT 1 FROM user_item_states st
			WHERE st.user_id = ? AND st.item_id = i.id
		)
		ORDER BY i.oxford_index IS NULL, i.oxford_index, i.created_at, i.id
		LIMIT 1
	`, userID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrItemNotFound
	}
	return item, mapError(err)
}

// Count implements store.ItemStore.
func (s *ItemStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vocabulary_items`).Scan(&n)
	return n, mapError(err)
}

// Delete implements store.ItemStore.
func (s *ItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM vocabulary_items WHERE id = ?`, id.String())
	if err != nil {
		return mapError(err)
	}
	return checkRowsAffected(result, store.ErrItemNotFound)
}

func (s *ItemStore) list(ctx context.Context, query string, args ...any) ([]*domain.VocabularyItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list items", slog.String("error", err.Error()))
		return nil, mapError(err)
	}
	defer rows.Close()

	items := []*domain.VocabularyItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, mapError(err)
		}
		items = append(items, item)
	}
	return items, mapError(rows.Err())
}

func scanItem(row rowScanner) (*domain.VocabularyItem, error) {
	var (
		item                 domain.VocabularyItem
		id, category         string
		oxford               sql.NullInt64
		createdAt, updatedAt string
	)

	if err := row.Scan(&id, &item.Text, &item.Translation, &category, &oxford, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	item.Category = domain.Category(category)
	if oxford.Valid {
		idx := int(oxford.Int64)
		item.OxfordIndex = &idx
	}
	return &item, nil
}
