package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerationRequest(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	req, err := NewGenerationRequest(userID, " kitchen ", "")
	require.NoError(t, err)
	assert.Equal(t, "kitchen", req.Theme)
	assert.Equal(t, CategoryTheme, req.Category)
	assert.Equal(t, GenerationStatusPending, req.Status)

	_, err = NewGenerationRequest(userID, "", CategoryFood)
	assert.ErrorIs(t, err, ErrEmptyTheme)

	_, err = NewGenerationRequest(uuid.Nil, "kitchen", CategoryFood)
	assert.ErrorIs(t, err, ErrEmptyGenerationUserID)

	_, err = NewGenerationRequest(userID, "kitchen", "snack")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestGenerationRequestUpdateStatus(t *testing.T) {
	t.Parallel()

	req, err := NewGenerationRequest(uuid.New(), "travel", CategoryTheme)
	require.NoError(t, err)
	created := req.UpdatedAt

	require.NoError(t, req.UpdateStatus(GenerationStatusProcessing))
	assert.Equal(t, GenerationStatusProcessing, req.Status)
	assert.False(t, req.UpdatedAt.Before(created))

	err = req.UpdateStatus("exploded")
	assert.ErrorIs(t, err, ErrInvalidGenerationStatus)
	assert.Equal(t, GenerationStatusProcessing, req.Status)
}
