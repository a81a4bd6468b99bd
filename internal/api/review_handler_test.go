package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/service/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func reviewedState(userID, itemID uuid.UUID, stability float64, at time.Time) *domain.UserItemState {
	next := at.Add(time.Duration(stability * 24 * float64(time.Hour)))
	return &domain.UserItemState{
		UserID: userID,
		ItemID: itemID,
		MemoryState: domain.MemoryState{
			Stability:      stability,
			Difficulty:     domain.DefaultDifficulty,
			LastReviewedAt: &at,
			ReviewCount:    1,
		},
		NextReviewAt: &next,
	}
}

func TestNewReviewHandlerPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewReviewHandler(nil, slog.Default()) })
	assert.Panics(t, func() { NewReviewHandler(new(mockReviewService), nil) })
}

func TestReviewHandler_GetNextItem(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	item, err := domain.NewCatalogueItem(0, "a", "um", domain.CategoryGeneral)
	require.NoError(t, err)

	tests := []struct {
		name       string
		userID     uuid.UUID
		next       *review.ReviewItem
		serviceErr error
		wantStatus int
	}{
		{
			name:   "next item",
			userID: userID,
			next: &review.ReviewItem{
				Item:  item,
				State: &domain.UserItemState{UserID: userID, ItemID: item.ID, MemoryState: domain.NewMemoryState()},
			},
			wantStatus: http.StatusOK,
		},
		{name: "nothing due", userID: userID, serviceErr: review.ErrNoItemsDue, wantStatus: http.StatusNoContent},
		{name: "service failure", userID: userID, serviceErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
		{name: "no user", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := new(mockReviewService)
			if tt.userID != uuid.Nil {
				svc.On("GetNextItem", mock.Anything, tt.userID).Return(tt.next, tt.serviceErr)
			}
			h := NewReviewHandler(svc, slog.Default())

			rec := serve(t, "/api/reviews/next", http.MethodGet, "/api/reviews/next", h.GetNextItem, tt.userID, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			switch tt.wantStatus {
			case http.StatusOK:
				var resp ReviewItemResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "a", resp.Item.Text)
				assert.Equal(t, 1, resp.Item.Lesson)
				assert.Equal(t, domain.DefaultStability, resp.State.Stability)
				assert.Nil(t, resp.State.LastReviewedAt)
			case http.StatusNoContent:
				assert.Empty(t, rec.Body.String())
			case http.StatusInternalServerError:
				assert.Contains(t, rec.Body.String(), "Failed to get next review item")
				assert.NotContains(t, rec.Body.String(), "db down")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestReviewHandler_ListDue(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	item, err := domain.NewVocabularyItem("run", "correr", domain.CategoryVerb)
	require.NoError(t, err)
	reviewedAt := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	due := []review.ReviewItem{{
		Item:           item,
		State:          reviewedState(userID, item.ID, 4, reviewedAt),
		Retrievability: 0.5,
	}}

	tests := []struct {
		name       string
		target     string
		wantLimit  int
		wantStatus int
	}{
		{name: "default limit", target: "/api/reviews/due", wantLimit: defaultListLimit, wantStatus: http.StatusOK},
		{name: "explicit limit", target: "/api/reviews/due?limit=5", wantLimit: 5, wantStatus: http.StatusOK},
		{name: "clamped limit", target: "/api/reviews/due?limit=1000", wantLimit: maxListLimit, wantStatus: http.StatusOK},
		{name: "invalid limit", target: "/api/reviews/due?limit=abc", wantStatus: http.StatusBadRequest},
		{name: "zero limit", target: "/api/reviews/due?limit=0", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := new(mockReviewService)
			if tt.wantLimit > 0 {
				svc.On("ListDue", mock.Anything, userID, tt.wantLimit).Return(due, nil)
			}
			h := NewReviewHandler(svc, slog.Default())

			rec := serve(t, "/api/reviews/due", http.MethodGet, tt.target, h.ListDue, userID, "")

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var resp []ReviewItemResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				require.Len(t, resp, 1)
				assert.Equal(t, 0.5, resp[0].Retrievability)
				assert.Equal(t, 4.0, resp[0].State.Stability)
				require.NotNil(t, resp[0].State.NextReviewAt)
				assert.True(t, resp[0].State.NextReviewAt.Equal(reviewedAt.AddDate(0, 0, 4)))
			}
			svc.AssertExpectations(t)
		})
	}

	t.Run("empty list is an empty array", func(t *testing.T) {
		t.Parallel()

		svc := new(mockReviewService)
		svc.On("ListDue", mock.Anything, userID, defaultListLimit).Return([]review.ReviewItem(nil), nil)
		h := NewReviewHandler(svc, slog.Default())

		rec := serve(t, "/api/reviews/due", http.MethodGet, "/api/reviews/due", h.ListDue, userID, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestReviewHandler_SubmitGrade(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	itemID := uuid.New()
	reviewedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		target     string
		body       string
		grade      domain.Grade
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{
			name:       "grade by name",
			body:       `{"grade":"good"}`,
			grade:      domain.GradeGood,
			wantStatus: http.StatusOK,
		},
		{
			name:       "grade name in mixed case",
			body:       `{"grade":"Good"}`,
			grade:      domain.GradeGood,
			wantStatus: http.StatusOK,
		},
		{
			name:       "grade by number",
			body:       `{"grade":4}`,
			grade:      domain.GradeEasy,
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid grade",
			body:       `{"grade":"perfect"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid Grade: invalid value",
		},
		{
			name:       "malformed body",
			body:       `{"grade":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request format",
		},
		{
			name:       "invalid item ID",
			target:     "/api/items/not-a-uuid/grade",
			body:       `{"grade":"good"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid ID",
		},
		{
			name:       "item not found",
			body:       `{"grade":"hard"}`,
			grade:      domain.GradeHard,
			serviceErr: review.ErrItemNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "Item not found",
		},
		{
			name:       "out of order review",
			body:       `{"grade":"again"}`,
			grade:      domain.GradeAgain,
			serviceErr: review.ErrOutOfOrderReview,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unexpected failure",
			body:       `{"grade":"good"}`,
			grade:      domain.GradeGood,
			serviceErr: review.NewServiceError("submit_grade", "failed", errors.New("disk full")),
			wantStatus: http.StatusInternalServerError,
			wantError:  "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target := tt.target
			if target == "" {
				target = fmt.Sprintf("/api/items/%s/grade", itemID)
			}

			svc := new(mockReviewService)
			if tt.grade != 0 {
				var state *domain.UserItemState
				if tt.serviceErr == nil {
					state = reviewedState(userID, itemID, 4, reviewedAt)
				}
				svc.On("SubmitGrade", mock.Anything, userID, itemID, tt.grade).Return(state, tt.serviceErr)
			}
			h := NewReviewHandler(svc, slog.Default())

			rec := serve(t, "/api/items/{id}/grade", http.MethodPost, target, h.SubmitGrade, userID, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var resp ItemStateResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, itemID.String(), resp.ItemID)
				assert.Equal(t, 4.0, resp.Stability)
				assert.Equal(t, 1, resp.ReviewCount)
			}
			if tt.wantError != "" {
				assert.Contains(t, rec.Body.String(), tt.wantError)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestReviewHandler_GetItemState(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	itemID := uuid.New()

	t.Run("default state", func(t *testing.T) {
		t.Parallel()

		svc := new(mockReviewService)
		svc.On("GetItemState", mock.Anything, userID, itemID).Return(&domain.UserItemState{
			UserID:      userID,
			ItemID:      itemID,
			MemoryState: domain.NewMemoryState(),
		}, nil)
		h := NewReviewHandler(svc, slog.Default())

		rec := serve(t, "/api/items/{id}/state", http.MethodGet, "/api/items/"+itemID.String()+"/state",
			h.GetItemState, userID, "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ItemStateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.ReviewCount)
		assert.Equal(t, domain.DefaultDifficulty, resp.Difficulty)
	})

	t.Run("unknown item", func(t *testing.T) {
		t.Parallel()

		svc := new(mockReviewService)
		svc.On("GetItemState", mock.Anything, userID, itemID).Return(nil, review.ErrItemNotFound)
		h := NewReviewHandler(svc, slog.Default())

		rec := serve(t, "/api/items/{id}/state", http.MethodGet, "/api/items/"+itemID.String()+"/state",
			h.GetItemState, userID, "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
