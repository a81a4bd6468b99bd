package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/service/review"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the token pair issued on register and login.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RefreshTokenRequest is the body of POST /api/auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse carries the rotated token pair.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// GradeValue accepts a grade as a name ("good", any case) or a number (3).
// Names are lowercased and numbers kept in their decimal string form so both
// pass the oneof validation and reach ParseGrade.
type GradeValue string

// UnmarshalJSON implements json.Unmarshaler.
func (g *GradeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '"' {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*g = GradeValue(strconv.Itoa(n))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*g = GradeValue(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// GradeRequest is the body of POST /api/items/{id}/grade.
type GradeRequest struct {
	Grade GradeValue `json:"grade" validate:"required,oneof=again hard good easy 1 2 3 4"`
}

// Parse converts the validated grade into a domain.Grade.
func (r GradeRequest) Parse() (domain.Grade, error) {
	return domain.ParseGrade(string(r.Grade))
}

// ItemRequest is a single custom vocabulary item.
type ItemRequest struct {
	Text        string `json:"text"        validate:"required,max=200"`
	Translation string `json:"translation" validate:"required,max=200"`
	Category    string `json:"category"    validate:"omitempty,oneof=verb emotion food theme general"`
}

// CreateItemsRequest is the body of POST /api/items.
type CreateItemsRequest struct {
	Items []ItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

// GenerationRequestBody is the body of POST /api/generations.
type GenerationRequestBody struct {
	Theme    string `json:"theme"    validate:"required,max=100"`
	Category string `json:"category" validate:"omitempty,oneof=verb emotion food theme general"`
}

// ItemResponse is a vocabulary item as returned by the API.
type ItemResponse struct {
	ID          string          `json:"id"`
	Text        string          `json:"text"`
	Translation string          `json:"translation"`
	Category    domain.Category `json:"category"`
	OxfordIndex *int            `json:"oxford_index,omitempty"`
	Lesson      int             `json:"lesson,omitempty"`
}

// ItemStateResponse is a learner's memory state for an item.
type ItemStateResponse struct {
	ItemID         string     `json:"item_id"`
	Stability      float64    `json:"stability"`
	Difficulty     float64    `json:"difficulty"`
	ReviewCount    int        `json:"review_count"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
	NextReviewAt   *time.Time `json:"next_review_at"`
}

// ReviewItemResponse pairs an item with the learner's state of it.
type ReviewItemResponse struct {
	Item           ItemResponse      `json:"item"`
	State          ItemStateResponse `json:"state"`
	Retrievability float64           `json:"retrievability"`
	DueAt          *time.Time        `json:"due_at,omitempty"`
}

// GenerationResponse reports a themed generation request.
type GenerationResponse struct {
	ID        string                  `json:"id"`
	Theme     string                  `json:"theme"`
	Category  domain.Category         `json:"category"`
	Status    domain.GenerationStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

func itemToResponse(item *domain.VocabularyItem) ItemResponse {
	resp := ItemResponse{
		ID:          item.ID.String(),
		Text:        item.Text,
		Translation: item.Translation,
		Category:    item.Category,
		OxfordIndex: item.OxfordIndex,
	}
	if lesson, ok := item.Lesson(); ok {
		resp.Lesson = lesson
	}
	return resp
}

func stateToResponse(state *domain.UserItemState) ItemStateResponse {
	return ItemStateResponse{
		ItemID:         state.ItemID.String(),
		Stability:      state.Stability,
		Difficulty:     state.Difficulty,
		ReviewCount:    state.ReviewCount,
		LastReviewedAt: state.LastReviewedAt,
		NextReviewAt:   state.NextReviewAt,
	}
}

func reviewItemToResponse(ri review.ReviewItem) ReviewItemResponse {
	return ReviewItemResponse{
		Item:           itemToResponse(ri.Item),
		State:          stateToResponse(ri.State),
		Retrievability: ri.Retrievability,
		DueAt:          ri.DueAt,
	}
}

func generationToResponse(req *domain.GenerationRequest) GenerationResponse {
	return GenerationResponse{
		ID:        req.ID.String(),
		Theme:     req.Theme,
		Category:  req.Category,
		Status:    req.Status,
		CreatedAt: req.CreatedAt,
	}
}
