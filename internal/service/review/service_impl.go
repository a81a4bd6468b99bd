package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/domain/srs"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/platform/tracing"
	"github.com/phrazzld/vocabweave-api/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Due list bounds.
const (
	DefaultDueLimit = 20
	MaxDueLimit     = 100
)

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

type reviewServiceImpl struct {
	db        *sql.DB
	items     store.ItemStore
	states    store.ItemStateStore
	logs      store.ReviewLogStore
	scheduler srs.Service
	recorder  Recorder
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures optional collaborators of the review service.
type Option func(*reviewServiceImpl)

// WithClock replaces the wall clock used as the review time.
func WithClock(now func() time.Time) Option {
	return func(s *reviewServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRecorder reports every persisted review to r.
func WithRecorder(r Recorder) Option {
	return func(s *reviewServiceImpl) {
		s.recorder = r
	}
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(
	db *sql.DB,
	items store.ItemStore,
	states store.ItemStateStore,
	logs store.ReviewLogStore,
	scheduler srs.Service,
	logger *slog.Logger,
	opts ...Option,
) ReviewService {
	switch {
	case db == nil:
		panic("db cannot be nil")
	case items == nil:
		panic("items cannot be nil")
	case states == nil:
		panic("states cannot be nil")
	case logs == nil:
		panic("logs cannot be nil")
	case scheduler == nil:
		panic("scheduler cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &reviewServiceImpl{
		db:        db,
		items:     items,
		states:    states,
		logs:      logs,
		scheduler: scheduler,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitGrade implements ReviewService.SubmitGrade.
func (s *reviewServiceImpl) SubmitGrade(
	ctx context.Context,
	userID, itemID uuid.UUID,
	grade domain.Grade,
) (*domain.UserItemState, error) {
	ctx, span := tracing.Tracer().Start(ctx, "review.SubmitGrade",
		trace.WithAttributes(
			attribute.String("user.id", userID.String()),
			attribute.String("item.id", itemID.String()),
			attribute.String("review.grade", grade.String()),
		))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger)

	if !grade.Valid() {
		log.Warn("invalid grade",
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()),
			slog.Int("grade", int(grade)))
		span.SetStatus(codes.Error, "invalid grade")
		return nil, &srs.InvalidGradeError{Grade: grade}
	}

	now := s.now().UTC()
	var saved *domain.UserItemState

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		items := s.items.WithTx(tx)
		states := s.states.WithTx(tx)
		logs := s.logs.WithTx(tx)

		if _, err := items.GetByID(ctx, itemID); err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to get item: %w", err)
		}

		state, err := states.GetForUpdate(ctx, userID, itemID)
		if errors.Is(err, store.ErrItemStateNotFound) {
			state, err = domain.NewUserItemState(userID, itemID, now)
			if err != nil {
				return fmt.Errorf("failed to build default state: %w", err)
			}
			if err = states.Create(ctx, state); err != nil {
				return fmt.Errorf("failed to create state: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to lock state: %w", err)
		}

		before := state.MemoryState
		after, err := s.scheduler.Schedule(before, grade, now)
		if err != nil {
			return err
		}

		state.MemoryState = after
		if due, ok := s.scheduler.DueAt(after); ok {
			state.NextReviewAt = &due
		}
		if err := states.Update(ctx, state); err != nil {
			return fmt.Errorf("failed to save state: %w", err)
		}

		entry, err := domain.NewReviewLog(userID, itemID, grade, before, after, now, nil)
		if err != nil {
			return fmt.Errorf("failed to build review log: %w", err)
		}
		if err := logs.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append review log: %w", err)
		}

		saved = state
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit grade failed")

		if errors.Is(err, ErrItemNotFound) ||
			errors.Is(err, ErrOutOfOrderReview) ||
			errors.Is(err, ErrInvalidGrade) {
			log.Warn("grade rejected",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("item_id", itemID.String()))
			return nil, err
		}

		log.Error("failed to submit grade",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()))
		return nil, NewServiceError("submit_grade", "failed to persist review", err)
	}

	if s.recorder != nil {
		s.recorder.ReviewRecorded(grade, saved.Stability)
	}
	span.SetAttributes(
		attribute.Float64("review.stability", saved.Stability),
		attribute.Float64("review.difficulty", saved.Difficulty),
		attribute.Int("review.count", saved.ReviewCount),
	)

	log.Debug("review recorded",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.String("grade", grade.String()),
		slog.Float64("stability", saved.Stability),
		slog.Float64("difficulty", saved.Difficulty))

	return saved, nil
}

// GetNextItem implements ReviewService.GetNextItem.
func (s *reviewServiceImpl) GetNextItem(ctx context.Context, userID uuid.UUID) (*ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now().UTC()

	due, err := s.states.ListDue(ctx, userID, now, 1)
	if err != nil {
		log.Error("failed to list due items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("get_next_item", "failed to list due items", err)
	}

	if len(due) > 0 {
		item, err := s.items.GetByID(ctx, due[0].ItemID)
		if err != nil {
			return nil, NewServiceError("get_next_item", "failed to load due item", err)
		}
		next := s.reviewItem(item, due[0], now)
		return &next, nil
	}

	item, err := s.items.GetNextUnseen(ctx, userID)
	if errors.Is(err, store.ErrItemNotFound) {
		log.Debug("no items due", slog.String("user_id", userID.String()))
		return nil, ErrNoItemsDue
	}
	if err != nil {
		return nil, NewServiceError("get_next_item", "failed to find unseen item", err)
	}

	state, err := domain.NewUserItemState(userID, item.ID, now)
	if err != nil {
		return nil, NewServiceError("get_next_item", "failed to build default state", err)
	}
	next := s.reviewItem(item, state, now)
	return &next, nil
}

// ListDue implements ReviewService.ListDue.
func (s *reviewServiceImpl) ListDue(ctx context.Context, userID uuid.UUID, limit int) ([]ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now().UTC()

	if limit <= 0 {
		limit = DefaultDueLimit
	}
	limit = min(limit, MaxDueLimit)

	states, err := s.states.ListDue(ctx, userID, now, limit)
	if err != nil {
		log.Error("failed to list due states",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("list_due", "failed to list due items", err)
	}
	if len(states) == 0 {
		return []ReviewItem{}, nil
	}

	ids := make([]uuid.UUID, len(states))
	for i, st := range states {
		ids[i] = st.ItemID
	}
	items, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, NewServiceError("list_due", "failed to load items", err)
	}
	byID := make(map[uuid.UUID]*domain.VocabularyItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	result := make([]ReviewItem, 0, len(states))
	for _, st := range states {
		item, ok := byID[st.ItemID]
		if !ok {
			log.Warn("due state without item", slog.String("item_id", st.ItemID.String()))
			continue
		}
		result = append(result, s.reviewItem(item, st, now))
	}
	return result, nil
}

// GetItemState implements ReviewService.GetItemState.
func (s *reviewServiceImpl) GetItemState(ctx context.Context, userID, itemID uuid.UUID) (*domain.UserItemState, error) {
	state, err := s.states.Get(ctx, userID, itemID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, store.ErrItemStateNotFound) {
		return nil, NewServiceError("get_item_state", "failed to load state", err)
	}

	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, NewServiceError("get_item_state", "failed to load item", err)
	}
	return domain.NewUserItemState(userID, itemID, s.now())
}

func (s *reviewServiceImpl) reviewItem(item *domain.VocabularyItem, state *domain.UserItemState, now time.Time) ReviewItem {
	ri := ReviewItem{
		Item:           item,
		State:          state,
		Retrievability: s.scheduler.Retrievability(state.MemoryState, now),
	}
	if due, ok := s.scheduler.DueAt(state.MemoryState); ok {
		ri.DueAt = &due
	}
	return ri
}
