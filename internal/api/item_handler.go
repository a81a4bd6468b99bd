package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocabweave-api/internal/api/shared"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/service"
)

// ItemHandler manages custom vocabulary items.
type ItemHandler struct {
	vocabularyService service.VocabularyService
	logger            *slog.Logger
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(vocabularyService service.VocabularyService, logger *slog.Logger) *ItemHandler {
	if vocabularyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("vocabularyService cannot be nil for ItemHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ItemHandler{
		vocabularyService: vocabularyService,
		logger:            logger.With(slog.String("component", "item_handler")),
	}
}

// CreateItems handles POST /api/items. Every item gets a default memory
// state for the caller, so it is due immediately.
func (h *ItemHandler) CreateItems(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateItemsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	items := make([]*domain.VocabularyItem, 0, len(req.Items))
	for i, in := range req.Items {
		category := domain.Category(in.Category)
		if category == "" {
			category = domain.CategoryGeneral
		}

		item, err := domain.NewVocabularyItem(in.Text, in.Translation, category)
		if err != nil {
			HandleAPIError(w, r, fmt.Errorf("%w: items[%d]: %w", domain.ErrValidation, i, err), "")
			return
		}
		items = append(items, item)
	}

	if err := h.vocabularyService.CreateItems(r.Context(), userID, items); err != nil {
		HandleAPIError(w, r, err, "Failed to create items")
		return
	}

	log.Info("custom items created",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(items)))

	resp := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, itemToResponse(item))
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// GetItem handles GET /api/items/{id}.
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	item, err := h.vocabularyService.GetItem(r.Context(), itemID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}
