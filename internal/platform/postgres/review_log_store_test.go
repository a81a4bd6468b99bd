package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresReviewLogStore(t *testing.T) {
	t.Parallel()

	userID, itemID := uuid.New(), uuid.New()
	reviewedAt := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)

	t.Run("append", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresReviewLogStore(db, discardLogger())

		before := domain.NewMemoryState()
		after := domain.MemoryState{Stability: 4, Difficulty: 5, LastReviewedAt: &reviewedAt, ReviewCount: 1}
		entry, err := domain.NewReviewLog(userID, itemID, domain.GradeGood, before, after, reviewedAt, nil)
		require.NoError(t, err)

		mock.ExpectExec("INSERT INTO review_logs").
			WithArgs(entry.ID, userID, itemID, 3, 1.0, 4.0, 5.0, 5.0, reviewedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.Append(context.Background(), entry))
	})

	t.Run("append rejects invalid grade", func(t *testing.T) {
		t.Parallel()
		db, _ := newMockDB(t)
		s := NewPostgresReviewLogStore(db, discardLogger())

		err := s.Append(context.Background(), &domain.ReviewLog{ID: "01HZ", Grade: 9})
		assert.ErrorIs(t, err, domain.ErrInvalidGrade)
	})

	t.Run("list newest first", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresReviewLogStore(db, discardLogger())

		columns := []string{
			"id", "user_id", "item_id", "grade",
			"stability_before", "stability_after",
			"difficulty_before", "difficulty_after", "reviewed_at",
		}
		mock.ExpectQuery("ORDER BY reviewed_at DESC").
			WithArgs(userID, itemID, 5).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("01J0000000000000000000000B", userID.String(), itemID.String(), 1, 4.0, 2.8, 5.0, 5.8, reviewedAt).
				AddRow("01J0000000000000000000000A", userID.String(), itemID.String(), 3, 1.0, 4.0, 5.0, 5.0, reviewedAt.Add(-time.Hour)))

		logs, err := s.ListForItem(context.Background(), userID, itemID, 5)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, domain.GradeAgain, logs[0].Grade)
		assert.Equal(t, domain.GradeGood, logs[1].Grade)
	})
}
