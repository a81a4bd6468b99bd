package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocabweave-api/internal/api/shared"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/service/progress"
)

// ProgressHandler serves lesson progress, the dashboard and quests.
type ProgressHandler struct {
	progressService progress.ProgressService
	logger          *slog.Logger
}

// NewProgressHandler creates a new ProgressHandler
func NewProgressHandler(progressService progress.ProgressService, logger *slog.Logger) *ProgressHandler {
	if progressService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("progressService cannot be nil for ProgressHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ProgressHandler{
		progressService: progressService,
		logger:          logger.With(slog.String("component", "progress_handler")),
	}
}

// LessonProgress handles GET /api/lessons/{n}/progress.
func (h *ProgressHandler) LessonProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	lesson, err := getPathInt(r, "n")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	summary, err := h.progressService.LessonProgress(r.Context(), userID, lesson)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// Dashboard handles GET /api/progress.
func (h *ProgressHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	dashboard, err := h.progressService.Dashboard(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, dashboard)
}

// Quests handles GET /api/quests.
func (h *ProgressHandler) Quests(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	quests, err := h.progressService.Quests(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load quests")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, quests)
}
