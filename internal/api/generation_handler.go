package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocabweave-api/internal/api/shared"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/service"
)

// GenerationHandler accepts themed vocabulary generation requests.
type GenerationHandler struct {
	generationService service.GenerationService
	logger            *slog.Logger
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(generationService service.GenerationService, logger *slog.Logger) *GenerationHandler {
	if generationService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("generationService cannot be nil for GenerationHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GenerationHandler{
		generationService: generationService,
		logger:            logger.With(slog.String("component", "generation_handler")),
	}
}

// RequestGeneration handles POST /api/generations. Items are generated in
// the background, so the response is 202 with the pending request.
func (h *GenerationHandler) RequestGeneration(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req GenerationRequestBody
	if !decodeAndValidate(w, r, &req) {
		return
	}

	genReq, err := h.generationService.RequestGeneration(
		r.Context(),
		userID,
		req.Theme,
		domain.Category(req.Category),
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to request generation")
		return
	}

	log.Info("generation requested",
		slog.String("user_id", userID.String()),
		slog.String("request_id", genReq.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusAccepted, generationToResponse(genReq))
}

// GetGeneration handles GET /api/generations/{id}. Requests owned by
// another learner answer 403.
func (h *GenerationHandler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, requestID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	genReq, err := h.generationService.GetRequestForUser(r.Context(), userID, requestID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, generationToResponse(genReq))
}
