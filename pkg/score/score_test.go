package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePushes(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"zero", 0, 0},
		{"half", 50, 0.5},
		{"at cap", 100, 1},
		{"over cap", 150, 1},
		{"single", 1, 0.01},
		{"negative", -5, 0},
		{"nan", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NormalizePushes(tt.input), 1e-12)
		})
	}
}

func TestNormalizeTx(t *testing.T) {
	tests := []struct {
		name  string
		input uint64
		want  float64
	}{
		{"zero", 0, 0},
		{"half", 100, 0.5},
		{"at cap", 200, 1},
		{"over cap", 300, 1},
		{"huge", math.MaxUint64, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NormalizeTx(tt.input), 1e-12)
		})
	}
}

func TestNormalizeExactCap(t *testing.T) {
	assert.Equal(t, 1.0, NormalizePushes(PushCeil))
	assert.Equal(t, 1.0, NormalizeTx(TxCeil))
}

func TestNormalizeMonotonic(t *testing.T) {
	prev := NormalizePushes(0)
	for i := 1; i <= 150; i++ {
		v := NormalizePushes(float64(i))
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}

	prev = NormalizeTx(0)
	for i := uint64(1); i <= 300; i++ {
		v := NormalizeTx(i)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestCalculate(t *testing.T) {
	c := NewCalculator()
	require.NoError(t, c.Validate())

	for a := 0.0; a <= 1.0; a += 0.1 {
		for b := 0.0; b <= 1.0; b += 0.1 {
			s := c.Calculate(Factors{Pushes: a, Tx: b})
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, MaxScore)
			assert.InDelta(t, (a+b)*50, s, 1e-9)
		}
	}
}

func TestCalculate_Bounds(t *testing.T) {
	c := NewCalculator()
	assert.Equal(t, 0.0, c.Calculate(Factors{}))
	assert.Equal(t, 100.0, c.Calculate(Factors{Pushes: 1, Tx: 1}))
	assert.Equal(t, 50.0, c.Calculate(Factors{Pushes: 1}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		calc    Calculator
		wantErr bool
	}{
		{"default", Calculator{GitHubWeight: 0.5, ChainWeight: 0.5}, false},
		{"skewed", Calculator{GitHubWeight: 0.7, ChainWeight: 0.3}, false},
		{"negative", Calculator{GitHubWeight: 1.5, ChainWeight: -0.5}, true},
		{"over one", Calculator{GitHubWeight: 0.6, ChainWeight: 0.6}, true},
		{"zero", Calculator{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.calc.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWeights)
				return
			}
			assert.NoError(t, err)
		})
	}
}
