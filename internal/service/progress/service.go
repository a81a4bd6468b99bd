// Package progress summarises a learner's memory states into lesson,
// dashboard and quest views.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/domain/srs"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/store"
)

// ErrInvalidLesson is returned for lesson numbers outside the curriculum.
var ErrInvalidLesson = domain.ErrInvalidLesson

// LessonSummary reports how much of one lesson the learner has mastered.
type LessonSummary struct {
	Lesson   domain.Lesson `json:"lesson"`
	Total    int           `json:"total"`
	Seen     int           `json:"seen"`
	Mastered int           `json:"mastered"`
}

// CategoryProgress counts the learner's items in one category.
type CategoryProgress struct {
	Category domain.Category `json:"category"`
	Seen     int             `json:"seen"`
	Mastered int             `json:"mastered"`
}

// Dashboard is the learner's overall progress.
type Dashboard struct {
	TotalItems         int                `json:"total_items"`
	SeenItems          int                `json:"seen_items"`
	MasteredItems      int                `json:"mastered_items"`
	MasteredPercentage float64            `json:"mastered_percentage"`
	DueCount           int                `json:"due_count"`
	CurrentLesson      int                `json:"current_lesson"`
	Categories         []CategoryProgress `json:"categories"`
}

// ProgressService computes progress views for a learner.
type ProgressService interface {
	// LessonProgress counts mastered items over the lesson's Oxford range.
	LessonProgress(ctx context.Context, userID uuid.UUID, lesson int) (LessonSummary, error)

	// Dashboard summarises every item the learner has seen.
	Dashboard(ctx context.Context, userID uuid.UUID) (Dashboard, error)

	// Quests evaluates the default quests against mastered items per category.
	Quests(ctx context.Context, userID uuid.UUID) ([]domain.QuestProgress, error)
}

type progressServiceImpl struct {
	items     store.ItemStore
	states    store.ItemStateStore
	scheduler srs.Service
	now       func() time.Time
	logger    *slog.Logger
}

var _ ProgressService = (*progressServiceImpl)(nil)

// NewProgressService creates a ProgressService. now defaults to time.Now.
func NewProgressService(
	items store.ItemStore,
	states store.ItemStateStore,
	scheduler srs.Service,
	now func() time.Time,
	logger *slog.Logger,
) ProgressService {
	if items == nil || states == nil || scheduler == nil {
		panic("progress service dependencies cannot be nil")
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &progressServiceImpl{
		items:     items,
		states:    states,
		scheduler: scheduler,
		now:       now,
		logger:    logger.With(slog.String("component", "progress_service")),
	}
}

// LessonProgress implements ProgressService.LessonProgress.
func (s *progressServiceImpl) LessonProgress(
	ctx context.Context,
	userID uuid.UUID,
	number int,
) (LessonSummary, error) {
	lesson, err := domain.NewLesson(number)
	if err != nil {
		return LessonSummary{}, err
	}

	items, err := s.items.ListByOxfordRange(ctx, lesson.WordStart, lesson.WordEnd)
	if err != nil {
		return LessonSummary{}, s.fail(ctx, "lesson_progress", userID, err)
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	states, err := s.states.ListForItems(ctx, userID, ids)
	if err != nil {
		return LessonSummary{}, s.fail(ctx, "lesson_progress", userID, err)
	}

	summary := LessonSummary{Lesson: lesson, Total: len(items)}
	for _, st := range states {
		if st.Reviewed() {
			summary.Seen++
		}
		if s.scheduler.IsMastered(st.MemoryState) {
			summary.Mastered++
		}
	}
	return summary, nil
}

// Dashboard implements ProgressService.Dashboard.
func (s *progressServiceImpl) Dashboard(ctx context.Context, userID uuid.UUID) (Dashboard, error) {
	total, err := s.items.Count(ctx)
	if err != nil {
		return Dashboard{}, s.fail(ctx, "dashboard", userID, err)
	}

	due, err := s.states.CountDue(ctx, userID, s.now().UTC())
	if err != nil {
		return Dashboard{}, s.fail(ctx, "dashboard", userID, err)
	}

	tally, err := s.tally(ctx, userID)
	if err != nil {
		return Dashboard{}, s.fail(ctx, "dashboard", userID, err)
	}

	d := Dashboard{
		TotalItems:    total,
		SeenItems:     tally.seen,
		MasteredItems: tally.mastered,
		DueCount:      due,
		CurrentLesson: max(1, tally.lesson),
		Categories:    make([]CategoryProgress, 0, len(domain.Categories())),
	}
	if total > 0 {
		d.MasteredPercentage = math.Round(float64(tally.mastered)/float64(total)*1000) / 10
	}
	for _, c := range domain.Categories() {
		cp := tally.byCategory[c]
		cp.Category = c
		d.Categories = append(d.Categories, cp)
	}
	return d, nil
}

// Quests implements ProgressService.Quests.
func (s *progressServiceImpl) Quests(ctx context.Context, userID uuid.UUID) ([]domain.QuestProgress, error) {
	tally, err := s.tally(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, "quests", userID, err)
	}

	quests := domain.DefaultQuests()
	result := make([]domain.QuestProgress, len(quests))
	for i, q := range quests {
		result[i] = q.Evaluate(tally.byCategory[q.Category].Mastered)
	}
	return result, nil
}

type tally struct {
	seen       int
	mastered   int
	lesson     int
	byCategory map[domain.Category]CategoryProgress
}

// tally walks every state the learner owns, joined with its item.
func (s *progressServiceImpl) tally(ctx context.Context, userID uuid.UUID) (tally, error) {
	t := tally{byCategory: make(map[domain.Category]CategoryProgress)}

	states, err := s.states.ListForUser(ctx, userID)
	if err != nil {
		return t, fmt.Errorf("list states: %w", err)
	}
	if len(states) == 0 {
		return t, nil
	}

	ids := make([]uuid.UUID, len(states))
	for i, st := range states {
		ids[i] = st.ItemID
	}
	items, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return t, fmt.Errorf("load items: %w", err)
	}
	byID := make(map[uuid.UUID]*domain.VocabularyItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	for _, st := range states {
		item, ok := byID[st.ItemID]
		if !ok || !st.Reviewed() {
			continue
		}

		cp := t.byCategory[item.Category]
		t.seen++
		cp.Seen++
		if s.scheduler.IsMastered(st.MemoryState) {
			t.mastered++
			cp.Mastered++
		}
		t.byCategory[item.Category] = cp

		if lesson, ok := item.Lesson(); ok {
			t.lesson = max(t.lesson, lesson)
		}
	}
	return t, nil
}

func (s *progressServiceImpl) fail(ctx context.Context, op string, userID uuid.UUID, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	logger.FromContextOrDefault(ctx, s.logger).Error("failed to compute progress",
		slog.String("operation", op),
		slog.String("error", err.Error()),
		slog.String("user_id", userID.String()))
	return fmt.Errorf("%s: %w", op, err)
}
