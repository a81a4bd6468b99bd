package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/store"
)

// PostgresItemStateStore implements the store.ItemStateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresItemStateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure PostgresItemStateStore implements store.ItemStateStore interface
var _ store.ItemStateStore = (*PostgresItemStateStore)(nil)

// NewPostgresItemStateStore creates a new PostgreSQL implementation of the ItemStateStore interface.
func NewPostgresItemStateStore(db store.DBTX, logger *slog.Logger) *PostgresItemStateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresItemStateStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_state_store")),
	}
}

// WithTx implements store.ItemStateStore.WithTx
func (s *PostgresItemStateStore) WithTx(tx *sql.Tx) store.ItemStateStore {
	return &PostgresItemStateStore{db: tx, logger: s.logger}
}

const itemStateColumns = `user_id, item_id, stability, difficulty, last_reviewed_at,
	review_count, next_review_at, created_at, updated_at`

// Create implements store.ItemStateStore.Create
func (s *PostgresItemStateStore) Create(ctx context.Context, state *domain.UserItemState) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", state.UserID.String()),
		slog.String("item_id", state.ItemID.String()),
	)

	if err := state.Validate(); err != nil {
		log.Warn("item state validation failed during create", slog.String("error", err.Error()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_item_states (`+itemStateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		state.UserID,
		state.ItemID,
		state.Stability,
		state.Difficulty,
		nullTime(state.LastReviewedAt),
		state.ReviewCount,
		nullTime(state.NextReviewAt),
		state.CreatedAt,
		state.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create item state", slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Debug("item state created successfully")
	return nil
}

// Get implements store.ItemStateStore.Get
func (s *PostgresItemStateStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.UserItemState, error) {
	return s.get(ctx, `SELECT `+itemStateColumns+`
		FROM user_item_states
		WHERE user_id = $1 AND item_id = $2`, userID, itemID)
}

// GetForUpdate implements store.ItemStateStore.GetForUpdate
// The row stays locked until the surrounding transaction ends.
func (s *PostgresItemStateStore) GetForUpdate(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.UserItemState, error) {
	return s.get(ctx, `SELECT `+itemStateColumns+`
		FROM user_item_states
		WHERE user_id = $1 AND item_id = $2
		FOR UPDATE`, userID, itemID)
}

func (s *PostgresItemStateStore) get(
	ctx context.Context,
	query string,
	userID, itemID uuid.UUID,
) (*domain.UserItemState, error) {
	state, err := scanItemState(s.db.QueryRowContext(ctx, query, userID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemStateNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get item state",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()))
		return nil, MapError(err)
	}
	return state, nil
}

// Update implements store.ItemStateStore.Update
func (s *PostgresItemStateStore) Update(ctx context.Context, state *domain.UserItemState) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", state.UserID.String()),
		slog.String("item_id", state.ItemID.String()),
	)

	if err := state.Validate(); err != nil {
		log.Warn("item state validation failed during update", slog.String("error", err.Error()))
		return err
	}

	state.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE user_item_states
		SET stability = $1,
			difficulty = $2,
			last_reviewed_at = $3,
			review_count = $4,
			next_review_at = $5,
			updated_at = $6
		WHERE user_id = $7 AND item_id = $8
	`,
		state.Stability,
		state.Difficulty,
		nullTime(state.LastReviewedAt),
		state.ReviewCount,
		nullTime(state.NextReviewAt),
		state.UpdatedAt,
		state.UserID,
		state.ItemID,
	)
	if err != nil {
		log.Error("failed to update item state", slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrItemStateNotFound); err != nil {
		return err
	}

	log.Debug("item state updated successfully",
		slog.Float64("stability", state.Stability),
		slog.Int("review_count", state.ReviewCount))
	return nil
}

// ListDue implements store.ItemStateStore.ListDue
// Reviewed items come first, lowest retrievability first, then never-reviewed
// items. Retrievability 2^(-elapsed/stability) falls as elapsed/stability
// grows, so ordering by that ratio descending is enough.
func (s *PostgresItemStateStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.UserItemState, error) {
	if limit <= 0 {
		return []*domain.UserItemState{}, nil
	}

	return s.list(ctx, "list due item states", `
		SELECT `+itemStateColumns+`
		FROM user_item_states
		WHERE user_id = $1
			AND (next_review_at IS NULL OR next_review_at <= $2)
		ORDER BY (last_reviewed_at IS NULL),
			EXTRACT(EPOCH FROM ($2::timestamptz - last_reviewed_at)) / stability DESC,
			next_review_at, created_at
		LIMIT $3
	`, userID, now.UTC(), limit)
}

// CountDue implements store.ItemStateStore.CountDue
func (s *PostgresItemStateStore) CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM user_item_states
		WHERE user_id = $1
			AND (next_review_at IS NULL OR next_review_at <= $2)
	`, userID, now.UTC()).Scan(&n)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count due item states",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}
	return n, nil
}

// ListForUser implements store.ItemStateStore.ListForUser
func (s *PostgresItemStateStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserItemState, error) {
	return s.list(ctx, "list item states for user", `
		SELECT `+itemStateColumns+`
		FROM user_item_states
		WHERE user_id = $1
		ORDER BY created_at, item_id
	`, userID)
}

// ListForItems implements store.ItemStateStore.ListForItems
func (s *PostgresItemStateStore) ListForItems(
	ctx context.Context,
	userID uuid.UUID,
	itemIDs []uuid.UUID,
) ([]*domain.UserItemState, error) {
	if len(itemIDs) == 0 {
		return []*domain.UserItemState{}, nil
	}

	return s.list(ctx, "list item states for items", `
		SELECT `+itemStateColumns+`
		FROM user_item_states
		WHERE user_id = $1 AND item_id = ANY($2::uuid[])
		ORDER BY created_at, item_id
	`, userID, uuidArray(itemIDs))
}

func (s *PostgresItemStateStore) list(
	ctx context.Context,
	op, query string,
	args ...any,
) ([]*domain.UserItemState, error) {
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

	states := []*domain.UserItemState{}
	for rows.Next() {
		state, err := scanItemState(rows)
		if err != nil {
			log.Error("failed to scan item state row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating item state rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return states, nil
}

func scanItemState(row rowScanner) (*domain.UserItemState, error) {
	var (
		state        domain.UserItemState
		lastReviewed sql.NullTime
		nextReview   sql.NullTime
	)

	if err := row.Scan(
		&state.UserID,
		&state.ItemID,
		&state.Stability,
		&state.Difficulty,
		&lastReviewed,
		&state.ReviewCount,
		&nextReview,
		&state.CreatedAt,
		&state.UpdatedAt,
	); err != nil {
		return nil, err
	}

	state.LastReviewedAt = timePtr(lastReviewed)
	state.NextReviewAt = timePtr(nextReview)
	return &state, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
