package score

import (
	"errors"
	"fmt"
	"math"
)

const (
	defaultGitHubWeight = 0.5
	defaultChainWeight  = 0.5

	// MaxScore is the upper bound of a reputation score.
	MaxScore = 100.0

	weightSumTolerance = 1e-9
)

// ErrInvalidWeights is returned by Validate when the weights would let
// a score escape [0, MaxScore].
var ErrInvalidWeights = errors.New("invalid weights")

// Factors holds the normalized inputs to the calculator.
type Factors struct {
	Pushes float64 `json:"pushes" yaml:"pushes"`
	Tx     float64 `json:"tx" yaml:"tx"`
}

// Calculator combines normalized factors using fixed weights.
type Calculator struct {
	GitHubWeight float64 `json:"github_weight" yaml:"githubWeight"`
	ChainWeight  float64 `json:"chain_weight" yaml:"chainWeight"`
}

// NewCalculator returns a calculator with equal weights.
func NewCalculator() *Calculator {
	return &Calculator{
		GitHubWeight: defaultGitHubWeight,
		ChainWeight:  defaultChainWeight,
	}
}

// Validate checks that both weights are non-negative and sum to 1.0.
func (c *Calculator) Validate() error {
	if c.GitHubWeight < 0 || c.ChainWeight < 0 {
		return fmt.Errorf("%w: negative weight (github=%v, chain=%v)", ErrInvalidWeights, c.GitHubWeight, c.ChainWeight)
	}
	if sum := c.GitHubWeight + c.ChainWeight; math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// Calculate returns the weighted score scaled to 0-100.
func (c *Calculator) Calculate(f Factors) float64 {
	return (f.Pushes*c.GitHubWeight + f.Tx*c.ChainWeight) * MaxScore
}
