package sqlite

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

// ItemStateStore implements store.ItemStateStore on SQLite.
type ItemStateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ItemStateStore = (*ItemStateStore)(nil)

// NewItemStateStore creates an ItemStateStore.
func NewItemStateStore(db store.DBTX, logger *slog.Logger) *ItemStateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemStateStore{db: db, logger: logger.With(slog.String("component", "sqlite_item_state_store"))}
}

// WithTx implements store.ItemStateStore.
func (s *ItemStateStore) WithTx(tx *sql.Tx) store.ItemStateStore {
	return &ItemStateStore{db: tx, logger: s.logger}
}

const stateColumns = `user_id, item_id, stability, difficulty, last_reviewed_at,
	review_count, next_review_at, created_at, updated_at`

// Create implements store.ItemStateStore.
func (s *ItemStateStore) Create(ctx context.Context, state *domain.UserItemState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_item_states (`+stateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		state.UserID.String(),
		state.ItemID.String(),
		state.Stability,
		state.Difficulty,
		nullableTime(state.LastReviewedAt),
		state.ReviewCount,
		nullableTime(state.NextReviewAt),
		formatTime(state.CreatedAt),
		formatTime(state.UpdatedAt),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create item state",
			slog.String("error", err.Error()),
			slog.String("item_id", state.ItemID.String()))
	}
	return mapError(err)
}

// Get implements store.ItemStateStore.
func (s *ItemStateStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.UserItemState, error) {
	state, err := scanState(s.db.QueryRowContext(ctx,
		`SELECT `+stateColumns+` FROM user_item_states WHERE user_id = ? AND item_id = ?`,
		userID.String(), itemID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrItemStateNotFound
	}
	return state, mapError(err)
}

// GetForUpdate implements store.ItemStateStore. SQLite has no row locks;
// the write lock taken by the surrounding transaction serializes updates.
func (s *ItemStateStore) GetForUpdate(ctx context.Context, userID, itemID uuid.UUID) (*domain.UserItemState, error) {
	return s.Get(ctx, userID, itemID)
}

// Update implements store.ItemStateStore.
func (s *ItemStateStore) Update(ctx context.Context, state *domain.UserItemState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	state.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_item_states
		SET stability = ?, difficulty = ?, last_reviewed_at = ?, review_count = ?,
			next_review_at = ?, updated_at = ?
		WHERE user_id = ? AND item_id = ?
	`,
		state.Stability,
		state.Difficulty,
		nullableTime(state.LastReviewedAt),
		state.ReviewCount,
		nullableTime(state.NextReviewAt),
		formatTime(state.UpdatedAt),
		state.UserID.String(),
		state.ItemID.String(),
	)
	if err != nil {
		return mapError(err)
	}
	return checkRowsAffected(result, store.ErrItemStateNotFound)
}

// ListDue implements store.ItemStateStore. Reviewed states come lowest
// retrievability first, which is the largest elapsed/stability ratio.
func (s *ItemStateStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.UserItemState, error) {
	if limit <= 0 {
		return []*domain.UserItemState{}, nil
	}
	at := formatTime(now)
	return s.list(ctx, `SELECT `+stateColumns+` FROM user_item_states
		WHERE user_id = ? AND (next_review_at IS NULL OR next_review_at <= ?)
		ORDER BY last_reviewed_at IS NULL,
			(julianday(?) - julianday(last_reviewed_at)) / stability DESC,
			next_review_at, created_at
		LIMIT ?`, userID.String(), at, at, limit)
}

// CountDue implements store.ItemStateStore.
func (s *ItemStateStore) CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_item_states
		WHERE user_id = ? AND (next_review_at IS NULL OR next_review_at <= ?)`,
		userID.String(), formatTime(now)).Scan(&n)
	return n, mapError(err)
}

// ListForUser implements store.ItemStateStore.
func (s *ItemStateStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserItemState, error) {
	return s.list(ctx, `SELECT `+stateColumns+` FROM user_item_states
		WHERE user_id = ? ORDER BY created_at, item_id`, userID.String())
}

// ListForItems implements store.ItemStateStore.
func (s *ItemStateStore) ListForItems(
	ctx context.Context,
	userID uuid.UUID,
	itemIDs []uuid.UUID,
) ([]*domain.UserItemState, error) {
	if len(itemIDs) == 0 {
		return []*domain.UserItemState{}, nil
	}
	args := append([]any{userID.String()}, uuidArgs(itemIDs)...)
	return s.list(ctx, `SELECT `+stateColumns+` FROM user_item_states
		WHERE user_id = ? AND item_id IN (`+placeholders(len(itemIDs))+`)
		ORDER BY created_at, item_id`, args...)
}

func (s *ItemStateStore) list(ctx context.Context, query string, args ...any) ([]*domain.UserItemState, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list item states",
			slog.String("error", err.Error()))
		return nil, mapError(err)
	}
	defer rows.Close()

	states := []*domain.UserItemState{}
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, mapError(err)
		}
		states = append(states, state)
	}
	return states, mapError(rows.Err())
}

func scanState(row rowScanner) (*domain.UserItemState, error) {
	var (
		state                    domain.UserItemState
		userID, itemID           string
		lastReviewed, nextReview sql.NullString
		createdAt, updatedAt     string
	)

	if err := row.Scan(
		&userID,
		&itemID,
		&state.Stability,
		&state.Difficulty,
		&lastReviewed,
		&state.ReviewCount,
		&nextReview,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if state.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if state.ItemID, err = uuid.Parse(itemID); err != nil {
		return nil, err
	}
	if state.LastReviewedAt, err = parseNullTime(lastReviewed); err != nil {
		return nil, err
	}
	if state.NextReviewAt, err = parseNullTime(nextReview); err != nil {
		return nil, err
	}
	if state.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if state.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &state, nil
}
