package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocabweave-api/internal/api/shared"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/service/review"
)

// ReviewHandler serves the review loop: what to study next, what is due,
// and grading.
type ReviewHandler struct {
	reviewService review.ReviewService
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService review.ReviewService, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewService cannot be nil for ReviewHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// GetNextItem handles GET /api/reviews/next. It answers 204 when the
// learner has nothing to study.
func (h *ReviewHandler) GetNextItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	next, err := h.reviewService.GetNextItem(r.Context(), userID)
	if errors.Is(err, review.ErrNoItemsDue) {
		log.Debug("no items due for review", slog.String("user_id", userID.String()))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get next review item")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reviewItemToResponse(*next))
}

// ListDue handles GET /api/reviews/due?limit=n.
func (h *ReviewHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	limit, err := getLimit(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	due, err := h.reviewService.ListDue(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due items")
		return
	}

	resp := make([]ReviewItemResponse, 0, len(due))
	for _, item := range due {
		resp = append(resp, reviewItemToResponse(item))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// SubmitGrade handles POST /api/items/{id}/grade. The grade is a name or
// a number from 1 (again) to 4 (easy).
func (h *ReviewHandler) SubmitGrade(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req GradeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	grade, err := req.Parse()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	state, err := h.reviewService.SubmitGrade(r.Context(), userID, itemID, grade)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("grade submitted",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.String("grade", grade.String()),
		slog.Float64("stability", state.Stability))
	shared.RespondWithJSON(w, r, http.StatusOK, stateToResponse(state))
}

// GetItemState handles GET /api/items/{id}/state.
func (h *ReviewHandler) GetItemState(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	state, err := h.reviewService.GetItemState(r.Context(), userID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stateToResponse(state))
}
