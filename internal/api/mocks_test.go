package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/api/shared"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/service"
	"github.com/phrazzld/vocabweave-api/internal/service/auth"
	"github.com/phrazzld/vocabweave-api/internal/service/progress"
	"github.com/phrazzld/vocabweave-api/internal/service/review"
	"github.com/stretchr/testify/mock"
)

type mockReviewService struct {
	mock.Mock
}

var _ review.ReviewService = (*mockReviewService)(nil)

func (m *mockReviewService) SubmitGrade(
	ctx context.Context,
	userID, itemID uuid.UUID,
	grade domain.Grade,
) (*domain.UserItemState, error) {
	args := m.Called(ctx, userID, itemID, grade)
	state, _ := args.Get(0).(*domain.UserItemState)
	return state, args.Error(1)
}

func (m *mockReviewService) GetNextItem(ctx context.Context, userID uuid.UUID) (*review.ReviewItem, error) {
	args := m.Called(ctx, userID)
	item, _ := args.Get(0).(*review.ReviewItem)
	return item, args.Error(1)
}

func (m *mockReviewService) ListDue(ctx context.Context, userID uuid.UUID, limit int) ([]review.ReviewItem, error) {
	args := m.Called(ctx, userID, limit)
	items, _ := args.Get(0).([]review.ReviewItem)
	return items, args.Error(1)
}

func (m *mockReviewService) GetItemState(ctx context.Context, userID, itemID uuid.UUID) (*domain.UserItemState, error) {
	args := m.Called(ctx, userID, itemID)
	state, _ := args.Get(0).(*domain.UserItemState)
	return state, args.Error(1)
}

type mockProgressService struct {
	mock.Mock
}

var _ progress.ProgressService = (*mockProgressService)(nil)

func (m *mockProgressService) LessonProgress(
	ctx context.Context,
	userID uuid.UUID,
	lesson int,
) (progress.LessonSummary, error) {
	args := m.Called(ctx, userID, lesson)
	summary, _ := args.Get(0).(progress.LessonSummary)
	return summary, args.Error(1)
}

func (m *mockProgressService) Dashboard(ctx context.Context, userID uuid.UUID) (progress.Dashboard, error) {
	args := m.Called(ctx, userID)
	dashboard, _ := args.Get(0).(progress.Dashboard)
	return dashboard, args.Error(1)
}

func (m *mockProgressService) Quests(ctx context.Context, userID uuid.UUID) ([]domain.QuestProgress, error) {
	args := m.Called(ctx, userID)
	quests, _ := args.Get(0).([]domain.QuestProgress)
	return quests, args.Error(1)
}

type mockVocabularyService struct {
	mock.Mock
}

var _ service.VocabularyService = (*mockVocabularyService)(nil)

func (m *mockVocabularyService) CreateItems(
	ctx context.Context,
	userID uuid.UUID,
	items []*domain.VocabularyItem,
) error {
	return m.Called(ctx, userID, items).Error(0)
}

func (m *mockVocabularyService) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.VocabularyItem, error) {
	args := m.Called(ctx, itemID)
	item, _ := args.Get(0).(*domain.VocabularyItem)
	return item, args.Error(1)
}

func (m *mockVocabularyService) ImportLesson(
	ctx context.Context,
	lesson int,
	entries []service.CatalogueEntry,
) (int, error) {
	args := m.Called(ctx, lesson, entries)
	return args.Int(0), args.Error(1)
}

type mockGenerationService struct {
	mock.Mock
}

var _ service.GenerationService = (*mockGenerationService)(nil)

func (m *mockGenerationService) RequestGeneration(
	ctx context.Context,
	userID uuid.UUID,
	theme string,
	category domain.Category,
) (*domain.GenerationRequest, error) {
	args := m.Called(ctx, userID, theme, category)
	req, _ := args.Get(0).(*domain.GenerationRequest)
	return req, args.Error(1)
}

func (m *mockGenerationService) GetRequest(ctx context.Context, requestID uuid.UUID) (*domain.GenerationRequest, error) {
	args := m.Called(ctx, requestID)
	req, _ := args.Get(0).(*domain.GenerationRequest)
	return req, args.Error(1)
}

func (m *mockGenerationService) GetRequestForUser(
	ctx context.Context,
	userID, requestID uuid.UUID,
) (*domain.GenerationRequest, error) {
	args := m.Called(ctx, userID, requestID)
	req, _ := args.Get(0).(*domain.GenerationRequest)
	return req, args.Error(1)
}

func (m *mockGenerationService) UpdateRequestStatus(
	ctx context.Context,
	requestID uuid.UUID,
	status domain.GenerationStatus,
) error {
	return m.Called(ctx, requestID, status).Error(0)
}

type mockUserService struct {
	mock.Mock
}

var _ service.UserService = (*mockUserService)(nil)

func (m *mockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserService) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserService) UpdateUserEmail(ctx context.Context, userID uuid.UUID, newEmail string) error {
	return m.Called(ctx, userID, newEmail).Error(0)
}

func (m *mockUserService) UpdateUserPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	return m.Called(ctx, userID, newPassword).Error(0)
}

func (m *mockUserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type mockJWTService struct {
	mock.Mock
}

var _ auth.JWTService = (*mockJWTService)(nil)

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*auth.Claims)
	return claims, args.Error(1)
}

func (m *mockJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*auth.Claims)
	return claims, args.Error(1)
}

// serve routes one request through a chi router so path parameters resolve.
// A non-nil userID is placed in the context as the auth middleware would.
func serve(
	t *testing.T,
	pattern, method, target string,
	handler http.HandlerFunc,
	userID uuid.UUID,
	body string,
) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Method(method, pattern, handler)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	log, _ := logger.GetTestLogger(t)
	ctx := logger.WithLogger(req.Context(), log)
	ctx = shared.WithTraceID(ctx, "test-trace")
	if userID != uuid.Nil {
		ctx = shared.WithUserID(ctx, userID)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}
