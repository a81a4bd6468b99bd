package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/events"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/store"
	"github.com/phrazzld/vocabweave-api/internal/task"
)

// GenerationService accepts themed vocabulary requests and tracks them
// while the background task processes them.
type GenerationService interface {
	// RequestGeneration saves a pending request and emits the event that
	// schedules its task.
	RequestGeneration(
		ctx context.Context,
		userID uuid.UUID,
		theme string,
		category domain.Category,
	) (*domain.GenerationRequest, error)

	// GetRequest retrieves a request by ID.
	GetRequest(ctx context.Context, requestID uuid.UUID) (*domain.GenerationRequest, error)

	// GetRequestForUser retrieves a request and fails with ErrNotOwned when
	// it belongs to another learner.
	GetRequestForUser(ctx context.Context, userID, requestID uuid.UUID) (*domain.GenerationRequest, error)

	// UpdateRequestStatus moves a request to status.
	UpdateRequestStatus(ctx context.Context, requestID uuid.UUID, status domain.GenerationStatus) error
}

type generationServiceImpl struct {
	db       *sql.DB
	requests store.GenerationRequestStore
	emitter  events.EventEmitter
	logger   *slog.Logger
}

var (
	_ GenerationService             = (*generationServiceImpl)(nil)
	_ task.GenerationRequestService = (*generationServiceImpl)(nil)
)

// NewGenerationService creates a new GenerationService.
// It returns an error if any of the required dependencies are nil.
func NewGenerationService(
	db *sql.DB,
	requests store.GenerationRequestStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (GenerationService, error) {
	switch {
	case db == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Err: errors.New("db cannot be nil")}
	case requests == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Err: errors.New("requests cannot be nil")}
	case emitter == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Err: errors.New("emitter cannot be nil")}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &generationServiceImpl{
		db:       db,
		requests: requests,
		emitter:  emitter,
		logger:   logger.With("component", "generation_service"),
	}, nil
}

// RequestGeneration implements GenerationService.RequestGeneration.
func (s *generationServiceImpl) RequestGeneration(
	ctx context.Context,
	userID uuid.UUID,
	theme string,
	category domain.Category,
) (*domain.GenerationRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	req, err := domain.NewGenerationRequest(userID, theme, category)
	if err != nil {
		log.Debug("rejected generation request",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.requests.WithTx(tx).Create(ctx, req)
	})
	if err != nil {
		log.Error("failed to save generation request",
			"error", err,
			"user_id", userID,
			"request_id", req.ID)
		return nil, NewServiceError("generation", "request_generation", err)
	}

	event, err := events.NewTaskRequestEvent(events.TypeVocabularyGeneration,
		events.VocabularyGenerationPayload{RequestID: req.ID})
	if err != nil {
		return nil, NewServiceError("generation", "request_generation", err)
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit generation event",
			"error", err,
			"request_id", req.ID,
			"event_id", event.ID)
		// Nothing will pick the request up now.
		if updateErr := s.UpdateRequestStatus(context.WithoutCancel(ctx), req.ID, domain.GenerationStatusFailed); updateErr != nil {
			log.Error("failed to mark undispatched request as failed",
				"error", updateErr,
				"request_id", req.ID)
		}
		return nil, NewServiceError("generation", "request_generation", err)
	}

	log.Info("generation requested",
		"request_id", req.ID,
		"user_id", userID,
		"theme", req.Theme,
		"category", req.Category)

	return req, nil
}

// GetRequest implements GenerationService.GetRequest.
func (s *generationServiceImpl) GetRequest(ctx context.Context, requestID uuid.UUID) (*domain.GenerationRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if !errors.Is(err, store.ErrGenerationRequestNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve generation request",
				"error", err,
				"request_id", requestID)
		}
		return nil, NewServiceError("generation", "get_request", err)
	}
	return req, nil
}

// GetRequestForUser implements GenerationService.GetRequestForUser.
func (s *generationServiceImpl) GetRequestForUser(
	ctx context.Context,
	userID, requestID uuid.UUID,
) (*domain.GenerationRequest, error) {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, ErrNotOwned
	}
	return req, nil
}

// UpdateRequestStatus implements GenerationService.UpdateRequestStatus.
func (s *generationServiceImpl) UpdateRequestStatus(
	ctx context.Context,
	requestID uuid.UUID,
	status domain.GenerationStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidGenerationStatus)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		requests := s.requests.WithTx(tx)

		req, err := requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.UpdateStatus(status); err != nil {
			return err
		}
		return requests.UpdateStatus(ctx, requestID, req.Status)
	})
	if err != nil {
		log.Error("failed to update generation request status",
			"error", err,
			"request_id", requestID,
			"target_status", status)
		return NewServiceError("generation", "update_request_status", err)
	}

	log.Info("generation request status updated",
		"request_id", requestID,
		"status", status)
	return nil
}
