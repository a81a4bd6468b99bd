package sqlite

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/store"
)

// ReviewLogStore implements store.ReviewLogStore on SQLite.
type ReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ReviewLogStore = (*ReviewLogStore)(nil)

// NewReviewLogStore creates a ReviewLogStore.
func NewReviewLogStore(db store.DBTX, logger *slog.Logger) *ReviewLogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewLogStore{db: db, logger: logger.With(slog.String("component", "sqlite_review_log_store"))}
}

// WithTx implements store.ReviewLogStore.
func (s *ReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &ReviewLogStore{db: tx, logger: s.logger}
}

// Append implements store.ReviewLogStore.
func (s *ReviewLogStore) Append(ctx context.Context, entry *domain.ReviewLog) error {
	if entry.ID == "" {
		return store.ErrInvalidEntity
	}
	if !entry.Grade.Valid() {
		return domain.ErrInvalidGrade
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_logs (
			id, user_id, item_id, grade,
			stability_before, stability_after, difficulty_before, difficulty_after,
			reviewed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.UserID.String(),
		entry.ItemID.String(),
		int(entry.Grade),
		entry.StabilityBefore,
		entry.StabilityAfter,
		entry.DifficultyBefore,
		entry.DifficultyAfter,
		formatTime(entry.ReviewedAt),
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append review log",
			slog.String("error", err.Error()),
			slog.String("review_id", entry.ID))
	}
	return mapError(err)
}

// ListForItem implements store.ReviewLogStore. ULIDs break ties between
// reviews recorded in the same instant.
func (s *ReviewLogStore) ListForItem(
	ctx context.Context,
	userID, itemID uuid.UUID,
	limit int,
) ([]*domain.ReviewLog, error) {
	if limit <= 0 {
		return []*domain.ReviewLog{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, grade,
			stability_before, stability_after, difficulty_before, difficulty_after,
			reviewed_at
		FROM review_logs
		WHERE user_id = ? AND item_id = ?
		ORDER BY reviewed_at DESC, id DESC
		LIMIT ?
	`, userID.String(), itemID.String(), limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	logs := []*domain.ReviewLog{}
	for rows.Next() {
		var (
			entry        domain.ReviewLog
			uid, iid, ts string
			grade        int
		)
		if err := rows.Scan(
			&entry.ID, &uid, &iid, &grade,
			&entry.StabilityBefore, &entry.StabilityAfter,
			&entry.DifficultyBefore, &entry.DifficultyAfter,
			&ts,
		); err != nil {
			return nil, mapError(err)
		}

		if entry.UserID, err = uuid.Parse(uid); err != nil {
			return nil, err
		}
		if entry.ItemID, err = uuid.Parse(iid); err != nil {
			return nil, err
		}
		if entry.ReviewedAt, err = parseTime(ts); err != nil {
			return nil, err
		}
		entry.Grade = domain.Grade(grade)
		logs = append(logs, &entry)
	}
	return logs, mapError(rows.Err())
}
