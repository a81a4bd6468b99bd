package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/store"
)

// PostgresReviewLogStore implements the store.ReviewLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure PostgresReviewLogStore implements store.ReviewLogStore interface
var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// NewPostgresReviewLogStore creates a new PostgreSQL implementation of the ReviewLogStore interface.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

// WithTx implements store.ReviewLogStore.WithTx
func (s *PostgresReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &PostgresReviewLogStore{db: tx, logger: s.logger}
}

// Append implements store.ReviewLogStore.Append
func (s *PostgresReviewLogStore) Append(ctx context.Context, entry *domain.ReviewLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if entry.ID == "" {
		return store.ErrInvalidEntity
	}
	if !entry.Grade.Valid() {
		return domain.ErrInvalidGrade
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_logs (
			id, user_id, item_id, grade,
			stability_before, stability_after,
			difficulty_before, difficulty_after,
			reviewed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID,
		entry.UserID,
		entry.ItemID,
		int(entry.Grade),
		entry.StabilityBefore,
		entry.StabilityAfter,
		entry.DifficultyBefore,
		entry.DifficultyAfter,
		entry.ReviewedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to append review log",
			slog.String("error", err.Error()),
			slog.String("review_id", entry.ID))
		return MapError(err)
	}

	return nil
}

// ListForItem implements store.ReviewLogStore.ListForItem
func (s *PostgresReviewLogStore) ListForItem(
	ctx context.Context,
	userID, itemID uuid.UUID,
	limit int,
) ([]*domain.ReviewLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		return []*domain.ReviewLog{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, grade,
			stability_before, stability_after,
			difficulty_before, difficulty_after,
			reviewed_at
		FROM review_logs
		WHERE user_id = $1 AND item_id = $2
		ORDER BY reviewed_at DESC, id DESC
		LIMIT $3
	`, userID, itemID, limit)
	if err != nil {
		log.Error("failed to list review logs",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	logs := []*domain.ReviewLog{}
	for rows.Next() {
		var (
			entry domain.ReviewLog
			grade int
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.ItemID,
			&grade,
			&entry.StabilityBefore,
			&entry.StabilityAfter,
			&entry.DifficultyBefore,
			&entry.DifficultyAfter,
			&entry.ReviewedAt,
		); err != nil {
			log.Error("failed to scan review log row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		entry.Grade = domain.Grade(grade)
		logs = append(logs, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return logs, nil
}
