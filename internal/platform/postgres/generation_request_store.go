package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/store"
)

// PostgresGenerationRequestStore implements store.GenerationRequestStore.
type PostgresGenerationRequestStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.GenerationRequestStore = (*PostgresGenerationRequestStore)(nil)

// NewPostgresGenerationRequestStore creates a new PostgresGenerationRequestStore.
func NewPostgresGenerationRequestStore(db store.DBTX, logger *slog.Logger) *PostgresGenerationRequestStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGenerationRequestStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_request_store")),
	}
}

// WithTx implements store.GenerationRequestStore.WithTx
func (s *PostgresGenerationRequestStore) WithTx(tx *sql.Tx) store.GenerationRequestStore {
	return &PostgresGenerationRequestStore{db: tx, logger: s.logger}
}

// Create implements store.GenerationRequestStore.Create
func (s *PostgresGenerationRequestStore) Create(ctx context.Context, req *domain.GenerationRequest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := req.Validate(); err != nil {
		log.Warn("generation request validation failed", slog.String("error", err.Error()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_requests (id, user_id, theme, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, req.ID, req.UserID, req.Theme, string(req.Category), string(req.Status), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		log.Error("failed to create generation request",
			slog.String("error", err.Error()),
			slog.String("request_id", req.ID.String()))
		return MapError(err)
	}

	log.Info("generation request created",
		slog.String("request_id", req.ID.String()),
		slog.String("theme", req.Theme))
	return nil
}

// GetByID implements store.GenerationRequestStore.GetByID
func (s *PostgresGenerationRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	var (
		req      domain.GenerationRequest
		category string
		status   string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, theme, category, status, created_at, updated_at
		FROM generation_requests
		WHERE id = $1
	`, id).Scan(&req.ID, &req.UserID, &req.Theme, &category, &status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrGenerationRequestNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get generation request",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return nil, MapError(err)
	}

	req.Category = domain.Category(category)
	req.Status = domain.GenerationStatus(status)
	return &req, nil
}

// UpdateStatus implements store.GenerationRequestStore.UpdateStatus
func (s *PostgresGenerationRequestStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.GenerationStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return domain.ErrInvalidGenerationStatus
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE generation_requests
		SET status = $1, updated_at = $2
		WHERE id = $3
	`, string(status), time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update generation request status",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrGenerationRequestNotFound); err != nil {
		return err
	}

	log.Debug("generation request status updated",
		slog.String("request_id", id.String()),
		slog.String("status", string(status)))
	return nil
}
