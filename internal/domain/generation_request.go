package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerationStatus represents the processing state of a generation request
type GenerationStatus string

// Possible generation status values
const (
	GenerationStatusPending    GenerationStatus = "pending"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// Common validation errors for GenerationRequest
var (
	ErrEmptyGenerationID       = errors.New("generation request ID cannot be empty")
	ErrEmptyGenerationUserID   = errors.New("generation request user ID cannot be empty")
	ErrEmptyTheme              = errors.New("generation theme cannot be empty")
	ErrInvalidGenerationStatus = errors.New("invalid generation status")
)

// GenerationRequest asks the generator to produce vocabulary items for a
// theme. Generated items are tagged with Category.
type GenerationRequest struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Theme     string           `json:"theme"`
	Category  Category         `json:"category"`
	Status    GenerationStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewGenerationRequest creates a pending request. An empty category
// defaults to CategoryTheme.
func NewGenerationRequest(userID uuid.UUID, theme string, category Category) (*GenerationRequest, error) {
	if category == "" {
		category = CategoryTheme
	}

	now := time.Now().UTC()
	req := &GenerationRequest{
		ID:        uuid.New(),
		UserID:    userID,
		Theme:     strings.TrimSpace(theme),
		Category:  category,
		Status:    GenerationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks if the GenerationRequest has valid data.
func (r *GenerationRequest) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyGenerationID
	}

	if r.UserID == uuid.Nil {
		return ErrEmptyGenerationUserID
	}

	if r.Theme == "" {
		return ErrEmptyTheme
	}

	if !r.Category.Valid() {
		return ErrInvalidCategory
	}

	if !r.Status.Valid() {
		return ErrInvalidGenerationStatus
	}

	return nil
}

// UpdateStatus updates the request status and the UpdatedAt timestamp.
func (r *GenerationRequest) UpdateStatus(status GenerationStatus) error {
	if !status.Valid() {
		return ErrInvalidGenerationStatus
	}

	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Valid reports whether s is a known status.
func (s GenerationStatus) Valid() bool {
	switch s {
	case GenerationStatusPending,
		GenerationStatusProcessing,
		GenerationStatusCompleted,
		GenerationStatusFailed:
		return true
	default:
		return false
	}
}
