// Package model holds the trained logistic reputation model. The model is
// decoded from a fixed-layout blob at startup and is immutable afterwards.
// It is not consulted by the weighted scorer.
package model

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
)

var (
	//go:embed model.bin
	defaultBlob []byte

	// ErrFeatureMismatch is returned when the feature vector length differs
	// from the number of model weights.
	ErrFeatureMismatch = errors.New("feature length mismatch")
)

// Model is a linear model with a sigmoid activation.
type Model struct {
	weights []float64
	bias    float64
}

// New creates a model from the given weights and bias. The weights are copied.
func New(weights []float64, bias float64) *Model {
	w := make([]float64, len(weights))
	copy(w, weights)
	return &Model{weights: w, bias: bias}
}

// Default decodes the model blob embedded in the binary.
func Default() (*Model, error) {
	m, err := Decode(defaultBlob)
	if err != nil {
		return nil, fmt.Errorf("decoding embedded model: %w", err)
	}
	return m, nil
}

// Weights returns a copy of the model weights.
func (m *Model) Weights() []float64 {
	w := make([]float64, len(m.weights))
	copy(w, m.weights)
	return w
}

// Bias returns the model bias.
func (m *Model) Bias() float64 {
	return m.bias
}

// Predict returns sigmoid(features·weights + bias), a value strictly
// between 0 and 1 for finite inputs.
func (m *Model) Predict(features []float64) (float64, error) {
	if len(features) != len(m.weights) {
		return 0, fmt.Errorf("%w: expected %d features, got %d",
			ErrFeatureMismatch, len(m.weights), len(features))
	}

	var dot float64
	for i, x := range features {
		dot += x * m.weights[i]
	}

	return sigmoid(dot + m.bias), nil
}

// sigmoid is the logistic function kept inside the open interval (0, 1);
// float64 rounds it to exactly 0 or 1 for large |z|.
func sigmoid(z float64) float64 {
	p := 1 / (1 + math.Exp(-z))
	switch {
	case p >= 1:
		return math.Nextafter(1, 0)
	case p <= 0:
		return math.Nextafter(0, 1)
	}
	return p
}
