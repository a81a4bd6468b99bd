package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/vocabweave-api/internal/domain"
)

// ErrInvalidParams is returned when a Params value cannot drive the scheduler.
var ErrInvalidParams = errors.New("invalid srs params")

// Params defines all configurable parameters for the scheduler
type Params struct {
	// Stability on the first successful review, in days
	BootstrapStability float64

	// Success path: s * (1 + (grade-3) * GrowthFactor * (daysSince+1)^-GrowthDecay)
	GrowthFactor float64
	GrowthDecay  float64

	// Failure path: max(StabilityFloor, s * LapseFactor)
	LapseFactor    float64
	StabilityFloor float64

	// Upper bound on stability; keeps repeated Easy grades finite
	MaxStability float64

	// Difficulty change per grade, applied before clamping
	DifficultyDelta map[domain.Grade]float64
	MinDifficulty   float64
	MaxDifficulty   float64

	// Number of decimal places stability is rounded to
	StabilityPrecision int

	// Items with stability strictly above this (and at least one review) are mastered
	MasteryThreshold float64
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values keep the default.
type ParamsConfig struct {
	BootstrapStability float64
	GrowthFactor       float64
	GrowthDecay        float64
	LapseFactor        float64
	StabilityFloor     float64
	MaxStability       float64

	AgainDifficultyDelta float64
	HardDifficultyDelta  float64
	EasyDifficultyDelta  float64

	MasteryThreshold float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		BootstrapStability: 4,
		GrowthFactor:       0.9,
		GrowthDecay:        0.3,
		LapseFactor:        0.7,
		StabilityFloor:     0.5,
		MaxStability:       36500,

		DifficultyDelta: map[domain.Grade]float64{
			domain.GradeAgain: 0.8,
			domain.GradeHard:  0.3,
			domain.GradeGood:  0,
			domain.GradeEasy:  -0.5,
		},
		MinDifficulty: domain.MinDifficulty,
		MaxDifficulty: domain.MaxDifficulty,

		StabilityPrecision: 1,
		MasteryThreshold:   0.8,
	}
}

// NewParams creates a new Params instance with custom configuration.
// The difficulty delta for Good is fixed at zero.
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if config.BootstrapStability != 0 {
		params.BootstrapStability = config.BootstrapStability
	}
	if config.GrowthFactor != 0 {
		params.GrowthFactor = config.GrowthFactor
	}
	if config.GrowthDecay != 0 {
		params.GrowthDecay = config.GrowthDecay
	}
	if config.LapseFactor != 0 {
		params.LapseFactor = config.LapseFactor
	}
	if config.StabilityFloor != 0 {
		params.StabilityFloor = config.StabilityFloor
	}
	if config.MaxStability != 0 {
		params.MaxStability = config.MaxStability
	}

	if config.AgainDifficultyDelta != 0 {
		params.DifficultyDelta[domain.GradeAgain] = config.AgainDifficultyDelta
	}
	if config.HardDifficultyDelta != 0 {
		params.DifficultyDelta[domain.GradeHard] = config.HardDifficultyDelta
	}
	if config.EasyDifficultyDelta != 0 {
		params.DifficultyDelta[domain.GradeEasy] = config.EasyDifficultyDelta
	}

	if config.MasteryThreshold != 0 {
		params.MasteryThreshold = config.MasteryThreshold
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return params, nil
}

// Validate checks that the parameters keep the scheduler's invariants.
func (p *Params) Validate() error {
	switch {
	case p.BootstrapStability <= 0:
		return fmt.Errorf("%w: bootstrap stability must be positive", ErrInvalidParams)
	case p.GrowthFactor < 0:
		return fmt.Errorf("%w: growth factor must not be negative", ErrInvalidParams)
	case p.GrowthDecay < 0:
		return fmt.Errorf("%w: growth decay must not be negative", ErrInvalidParams)
	case p.LapseFactor <= 0 || p.LapseFactor > 1:
		return fmt.Errorf("%w: lapse factor must be in (0, 1]", ErrInvalidParams)
	case p.StabilityFloor <= 0:
		return fmt.Errorf("%w: stability floor must be positive", ErrInvalidParams)
	case p.MaxStability <= p.StabilityFloor:
		return fmt.Errorf("%w: max stability must exceed the floor", ErrInvalidParams)
	case p.MinDifficulty >= p.MaxDifficulty:
		return fmt.Errorf("%w: difficulty bounds are inverted", ErrInvalidParams)
	case p.StabilityPrecision < 0 || p.StabilityPrecision > 6:
		return fmt.Errorf("%w: stability precision must be in [0, 6]", ErrInvalidParams)
	case p.MasteryThreshold < 0:
		return fmt.Errorf("%w: mastery threshold must not be negative", ErrInvalidParams)
	}

	for _, g := range domain.Grades() {
		if _, ok := p.DifficultyDelta[g]; !ok {
			return fmt.Errorf("%w: missing difficulty delta for %s", ErrInvalidParams, g)
		}
	}

	return nil
}
