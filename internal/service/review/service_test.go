package review

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/domain/srs"
	"github.com/phrazzld/vocabweave-api/internal/platform/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}


type recordedReview struct {
	grade     domain.Grade
	stability float64
}

type fakeRecorder struct {
	reviews []recordedReview
}

func (r *fakeRecorder) ReviewRecorded(grade domain.Grade, stability float64) {
	r.reviews = append(r.reviews, recordedReview{grade: grade, stability: stability})
}

type fixture struct {
	svc      ReviewService
	db       *sql.DB
	items    *sqlite.ItemStore
	states   *sqlite.ItemStateStore
	logs     *sqlite.ReviewLogStore
	clock    *fakeClock
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	scheduler, err := srs.NewDefaultService()
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		items:    sqlite.NewItemStore(db, nil),
		states:   sqlite.NewItemStateStore(db, nil),
		logs:     sqlite.NewReviewLogStore(db, nil),
		clock:    &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		recorder: &fakeRecorder{},
	}
	f.svc = NewReviewService(db, f.items, f.states, f.logs, scheduler, nil,
		WithClock(f.clock.Now), WithRecorder(f.recorder))
	return f
}

func (f *fixture) addItem(t *testing.T, index int, text string) *domain.VocabularyItem {
	t.Helper()
	item, err := domain.NewCatalogueItem(index, text, text+"-es", domain.CategoryGeneral)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(context.Background(), item))
	return item
}

func TestSubmitGrade_FirstReview(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, 0, "house")
	userID := uuid.New()

	state, err := f.svc.SubmitGrade(ctx, userID, item.ID, domain.GradeGood)
	require.NoError(t, err)

	assert.Equal(t, 4.0, state.Stability)
	assert.Equal(t, 5.0, state.Difficulty)
	assert.Equal(t, 1, state.ReviewCount)
	require.NotNil(t, state.LastReviewedAt)
	assert.True(t, f.clock.Now().Equal(*state.LastReviewedAt))
	require.NotNil(t, state.NextReviewAt)
	assert.True(t, f.clock.Now().Add(4*24*time.Hour).Equal(*state.NextReviewAt))

	stored, err := f.states.Get(ctx, userID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, state.Stability, stored.Stability)
	assert.Equal(t, 1, stored.ReviewCount)

	logs, err := f.logs.ListForItem(ctx, userID, item.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.GradeGood, logs[0].Grade)
	assert.Equal(t, domain.DefaultStability, logs[0].StabilityBefore)
	assert.Equal(t, 4.0, logs[0].StabilityAfter)

	assert.True(t, f.clock.Now().Equal(stored.CreatedAt), "created_at follows the injected clock")

	require.Len(t, f.recorder.reviews, 1)
	assert.Equal(t, recordedReview{grade: domain.GradeGood, stability: 4}, f.recorder.reviews[0])
}

func TestSubmitGrade_Sequence(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, 1, "run")
	userID := uuid.New()

	_, err := f.svc.SubmitGrade(ctx, userID, item.ID, domain.GradeGood)
	require.NoError(t, err)

	f.clock.Advance(4 * 24 * time.Hour)
	state, err := f.svc.SubmitGrade(ctx, userID, item.ID, domain.GradeAgain)
	require.NoError(t, err)
	assert.Equal(t, 2.8, state.Stability)
	assert.Equal(t, 5.8, state.Difficulty)
	assert.Equal(t, 2, state.ReviewCount)

	logs, err := f.logs.ListForItem(ctx, userID, item.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.GradeAgain, logs[0].Grade)
}

func TestSubmitGrade_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		run     func(t *testing.T, f *fixture) error
		wantErr error
	}{
		{
			name: "unknown item",
			run: func(t *testing.T, f *fixture) error {
				_, err := f.svc.SubmitGrade(context.Background(), uuid.New(), uuid.New(), domain.GradeGood)
				return err
			},
			wantErr: ErrItemNotFound,
		},
		{
			name: "invalid grade",
			run: func(t *testing.T, f *fixture) error {
				item := f.addItem(t, 2, "eat")
				_, err := f.svc.SubmitGrade(context.Background(), uuid.New(), item.ID, domain.Grade(7))
				return err
			},
			wantErr: ErrInvalidGrade,
		},
		{
			name: "out of order",
			run: func(t *testing.T, f *fixture) error {
				item := f.addItem(t, 3, "sleep")
				userID := uuid.New()
				_, err := f.svc.SubmitGrade(context.Background(), userID, item.ID, domain.GradeGood)
				require.NoError(t, err)
				f.clock.Advance(-time.Hour)
				_, err = f.svc.SubmitGrade(context.Background(), userID, item.ID, domain.GradeGood)
				return err
			},
			wantErr: ErrOutOfOrderReview,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			err := tc.run(t, f)
			assert.ErrorIs(t, err, tc.wantErr)

			var svcErr *ServiceError
			assert.False(t, errors.As(err, &svcErr), "expected failures are not wrapped")
		})
	}
}

func TestSubmitGrade_OutOfOrderLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, 4, "water")
	userID := uuid.New()

	first, err := f.svc.SubmitGrade(ctx, userID, item.ID, domain.GradeEasy)
	require.NoError(t, err)

	f.clock.Advance(-time.Minute)
	_, err = f.svc.SubmitGrade(ctx, userID, item.ID, domain.GradeAgain)
	require.ErrorIs(t, err, ErrOutOfOrderReview)

	stored, err := f.states.Get(ctx, userID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Stability, stored.Stability)
	assert.Equal(t, 1, stored.ReviewCount)

	logs, err := f.logs.ListForItem(ctx, userID, item.ID, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestGetNextItem(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := f.svc.GetNextItem(ctx, userID)
	assert.ErrorIs(t, err, ErrNoItemsDue)

	first := f.addItem(t, 0, "a")
	second := f.addItem(t, 1, "about")

	next, err := f.svc.GetNextItem(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, next.Item.ID)
	assert.Equal(t, 0, next.State.ReviewCount)
	assert.Zero(t, next.Retrievability)
	assert.Nil(t, next.DueAt)

	_, err = f.svc.SubmitGrade(ctx, userID, first.ID, domain.GradeGood)
	require.NoError(t, err)

	next, err = f.svc.GetNextItem(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, next.Item.ID, "unseen items follow once nothing is due")

	f.clock.Advance(time.Minute)
	_, err = f.svc.SubmitGrade(ctx, userID, second.ID, domain.GradeEasy)
	require.NoError(t, err)

	_, err = f.svc.GetNextItem(ctx, userID)
	assert.ErrorIs(t, err, ErrNoItemsDue)

	f.clock.Advance(5 * 24 * time.Hour)
	next, err = f.svc.GetNextItem(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, next.Item.ID, "the least retrievable item comes first")
	assert.InDelta(t, 0.42, next.Retrievability, 0.01)
	require.NotNil(t, next.DueAt)
}

func TestListDue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	a := f.addItem(t, 0, "a")
	b := f.addItem(t, 1, "able")
	c := f.addItem(t, 2, "about")

	_, err := f.svc.SubmitGrade(ctx, userID, a.ID, domain.GradeGood)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = f.svc.SubmitGrade(ctx, userID, b.ID, domain.GradeGood)
	require.NoError(t, err)
	_, err = f.svc.SubmitGrade(ctx, userID, c.ID, domain.GradeAgain)
	require.NoError(t, err)

	due, err := f.svc.ListDue(ctx, userID, 0)
	require.NoError(t, err)
	assert.Empty(t, due)

	f.clock.Advance(10 * 24 * time.Hour)
	due, err = f.svc.ListDue(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, c.ID, due[0].Item.ID)
	assert.Equal(t, a.ID, due[1].Item.ID)
	assert.Equal(t, b.ID, due[2].Item.ID)
	for _, ri := range due {
		assert.Greater(t, ri.Retrievability, 0.0)
		assert.Less(t, ri.Retrievability, 1.0)
	}

	due, err = f.svc.ListDue(ctx, userID, 1)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestDueOrderFollowsRetrievability(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	now := f.clock.Now()
	day := 24 * time.Hour

	fragile := f.addItem(t, 0, "a")
	durable := f.addItem(t, 1, "able")

	put := func(item *domain.VocabularyItem, stability float64, reviewed time.Time) {
		state, err := domain.NewUserItemState(userID, item.ID, reviewed)
		require.NoError(t, err)
		next := reviewed.Add(time.Duration(stability * float64(day)))
		state.Stability = stability
		state.LastReviewedAt = &reviewed
		state.ReviewCount = 1
		state.NextReviewAt = &next
		require.NoError(t, f.states.Create(ctx, state))
	}

	// durable has been due for a day, fragile only for twelve hours.
	put(fragile, 0.5, now.Add(-day))
	put(durable, 50, now.Add(-51*day))

	next, err := f.svc.GetNextItem(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, fragile.ID, next.Item.ID)
	assert.InDelta(t, 0.25, next.Retrievability, 1e-9)

	due, err := f.svc.ListDue(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, fragile.ID, due[0].Item.ID)
	assert.Equal(t, durable.ID, due[1].Item.ID)
	assert.Less(t, due[0].Retrievability, due[1].Retrievability)
}

func TestGetItemState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	item := f.addItem(t, 0, "a")

	state, err := f.svc.GetItemState(ctx, userID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NewMemoryState(), state.MemoryState)

	_, err = f.svc.SubmitGrade(ctx, userID, item.ID, domain.GradeHard)
	require.NoError(t, err)

	state, err = f.svc.GetItemState(ctx, userID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.ReviewCount)
	assert.Equal(t, 0.7, state.Stability)

	_, err = f.svc.GetItemState(ctx, userID, uuid.New())
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestNewReviewService_PanicsOnNilDependencies(t *testing.T) {
	t.Parallel()

	scheduler, err := srs.NewDefaultService()
	require.NoError(t, err)

	assert.Panics(t, func() {
		NewReviewService(nil, nil, nil, nil, scheduler, nil)
	})
}

func TestServiceError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := NewServiceError("submit_grade", "failed to persist review", cause)
	assert.Equal(t, "submit_grade operation failed: failed to persist review: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewServiceError("list_due", "limit too large", nil)
	assert.Equal(t, "list_due operation failed: limit too large", bare.Error())
}
