package postgres

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

// PostgresItemStore implements the store.ItemStore interface
// using a PostgreSQL database as the storage backend.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure PostgresItemStore implements store.ItemStore interface
var _ store.ItemStore = (*PostgresItemStore)(nil)

// NewPostgresItemStore creates a new PostgreSQL implementation of the ItemStore interface.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger) *PostgresItemStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// WithTx implements store.ItemStore.WithTx
func (s *PostgresItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &PostgresItemStore{db: tx, logger: s.logger}
}

const itemColumns = `id, text, translation, category, oxford_index, created_at, updated_at`

const insertItemQuery = `
	INSERT INTO vocabulary_items (id, text, translation, category, oxford_index, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (s *PostgresItemStore) insert(ctx context.Context, item *domain.VocabularyItem) error {
	var oxford sql.NullInt32
	if item.OxfordIndex != nil {
		oxford = sql.NullInt32{Int32: int32(*item.OxfordIndex), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, insertItemQuery,
		item.ID,
		item.Text,
		item.Translation,
		string(item.Category),
		oxford,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) && ConstraintName(err) != "vocabulary_items_pkey" {
			return store.ErrOxfordIndexExists
		}
		return MapError(err)
	}
	return nil
}

// Create implements store.ItemStore.Create
func (s *PostgresItemStore) Create(ctx context.Context, item *domain.VocabularyItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("item validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return err
	}

	if err := s.insert(ctx, item); err != nil {
		log.Error("failed to create item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return err
	}

	log.Debug("item created successfully", slog.String("item_id", item.ID.String()))
	return nil
}

// CreateMultiple implements store.ItemStore.CreateMultiple
// Atomicity is the caller's job: run it inside a transaction via WithTx.
func (s *PostgresItemStore) CreateMultiple(ctx context.Context, items []*domain.VocabularyItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			log.Warn("item validation failed during batch create",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID.String()))
			return err
		}
	}

	for _, item := range items {
		if err := s.insert(ctx, item); err != nil {
			log.Error("failed to insert item in batch",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID.String()))
			return err
		}
	}

	log.Debug("items created successfully", slog.Int("count", len(items)))
	return nil
}

// GetByID implements store.ItemStore.GetByID
func (s *PostgresItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM vocabulary_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, MapError(err)
	}

	return item, nil
}

// GetByIDs implements store.ItemStore.GetByIDs
func (s *PostgresItemStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.VocabularyItem, error) {
	if len(ids) == 0 {
		return []*domain.VocabularyItem{}, nil
	}

	return s.list(ctx, "get items by IDs",
		`SELECT `+itemColumns+` FROM vocabulary_items WHERE id = ANY($1::uuid[]) ORDER BY created_at, id`,
		uuidArray(ids))
}

// ListByOxfordRange implements store.ItemStore.ListByOxfordRange
func (s *PostgresItemStore) ListByOxfordRange(ctx context.Context, start, end int) ([]*domain.VocabularyItem, error) {
	if end < start {
		return []*domain.VocabularyItem{}, nil
	}

	return s.list(ctx, "list items by oxford range", `
		SELECT `+itemColumns+`
		FROM vocabulary_items
		WHERE oxford_index BETWEEN $1 AND $2
		ORDER BY oxford_index
	`, start, end)
}

// ListByCategory implements store.ItemStore.ListByCategory
func (s *PostgresItemStore) ListByCategory(
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

	return s.list(ctx, "list items by category", `
		SELECT `+itemColumns+`
		FROM vocabulary_items
		WHERE category = $1
		ORDER BY oxford_index NULLS LAST, created_at
		LIMIT $2
	`, string(category), limit)
}

// GetNextUnseen implements store.ItemStore.GetNextUnseen
func (s *PostgresItemStore) GetNextUnseen(ctx context.Context, userID uuid.UUID) (*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM vocabulary_items i
		WHERE NOT EXISTS (
			SELECT 1 FROM user_item_states s
			WHERE s.user_id = $1 AND s.item_id = i.id
		)
		ORDER BY i.oxford_index NULLS LAST, i.created_at, i.id
		LIMIT 1
	`, userID)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get next unseen item",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	return item, nil
}

// Count implements store.ItemStore.Count
func (s *PostgresItemStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vocabulary_items`).Scan(&n); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count items",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return n, nil
}

// Delete implements store.ItemStore.Delete
func (s *PostgresItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM vocabulary_items WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrItemNotFound); err != nil {
		return err
	}

	log.Debug("item deleted successfully", slog.String("item_id", id.String()))
	return nil
}

func (s *PostgresItemStore) list(ctx context.Context, op, query string, args ...any) ([]*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	items := []*domain.VocabularyItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			log.Error("failed to scan item row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating item rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return items, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.VocabularyItem, error) {
	var (
		item     domain.VocabularyItem
		category string
		oxford   sql.NullInt32
	)

	if err := row.Scan(
		&item.ID,
		&item.Text,
		&item.Translation,
		&category,
		&oxford,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}

	item.Category = domain.Category(category)
	if oxford.Valid {
		idx := int(oxford.Int32)
		item.OxfordIndex = &idx
	}

	return &item, nil
}

// uuidArray renders ids as a PostgreSQL array literal for use with $n::uuid[].
func uuidArray(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
