package srs

import (
	"testing"

	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultParams(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()
	require.NoError(t, params.Validate())

	assert.Equal(t, 4.0, params.BootstrapStability)
	assert.Equal(t, 0.9, params.GrowthFactor)
	assert.Equal(t, 0.3, params.GrowthDecay)
	assert.Equal(t, 0.7, params.LapseFactor)
	assert.Equal(t, 0.5, params.StabilityFloor)
	assert.Equal(t, 1.0, params.MinDifficulty)
	assert.Equal(t, 10.0, params.MaxDifficulty)
	assert.Equal(t, 1, params.StabilityPrecision)
	assert.Equal(t, 0.8, params.MasteryThreshold)

	assert.Equal(t, 0.8, params.DifficultyDelta[domain.GradeAgain])
	assert.Equal(t, 0.3, params.DifficultyDelta[domain.GradeHard])
	assert.Equal(t, 0.0, params.DifficultyDelta[domain.GradeGood])
	assert.Equal(t, -0.5, params.DifficultyDelta[domain.GradeEasy])
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	params, err := NewParams(ParamsConfig{
		BootstrapStability:  3,
		LapseFactor:         0.5,
		EasyDifficultyDelta: -1,
		MasteryThreshold:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, 3.0, params.BootstrapStability)
	assert.Equal(t, 0.5, params.LapseFactor)
	assert.Equal(t, -1.0, params.DifficultyDelta[domain.GradeEasy])
	assert.Equal(t, 2.0, params.MasteryThreshold)

	// untouched fields keep their defaults
	assert.Equal(t, 0.9, params.GrowthFactor)
	assert.Equal(t, 0.8, params.DifficultyDelta[domain.GradeAgain])
}

func TestNewParamsDoesNotShareDefaults(t *testing.T) {
	t.Parallel()

	_, err := NewParams(ParamsConfig{AgainDifficultyDelta: 2})
	require.NoError(t, err)

	assert.Equal(t, 0.8, NewDefaultParams().DifficultyDelta[domain.GradeAgain])
}

func TestNewParamsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config ParamsConfig
	}{
		{name: "negative bootstrap", config: ParamsConfig{BootstrapStability: -1}},
		{name: "lapse factor above one", config: ParamsConfig{LapseFactor: 1.5}},
		{name: "negative floor", config: ParamsConfig{StabilityFloor: -0.5}},
		{name: "max below floor", config: ParamsConfig{StabilityFloor: 5, MaxStability: 4}},
		{name: "negative growth", config: ParamsConfig{GrowthFactor: -0.1}},
		{name: "negative mastery threshold", config: ParamsConfig{MasteryThreshold: -1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewParams(tc.config)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestParamsValidateMissingDelta(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()
	delete(params.DifficultyDelta, domain.GradeHard)
	assert.ErrorIs(t, params.Validate(), ErrInvalidParams)
}
