package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 27},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1, 2}, []float32{-1, 1, -2}, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SquaredL2(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestL2(t *testing.T) {
	assert.InDelta(t, float32(5), L2([]float32{3, 4, 0}, []float32{0, 0, 0}), 1e-5)
	assert.InDelta(t, float32(0), L2([]float32{1, 1, 1}, []float32{1, 1, 1}), 1e-5)
}

func TestChebyshev(t *testing.T) {
	assert.InDelta(t, float32(4), Chebyshev([]float32{5, 0, 0}, []float32{1, 1, 1}), 1e-6)
	assert.InDelta(t, float32(9), Chebyshev([]float32{0, 1, 9}, []float32{0, 0, 0}), 1e-6)
}

func TestPredicateString(t *testing.T) {
	assert.Equal(t, "Ball", PredicateBall.String())
	assert.Equal(t, "Cube", PredicateCube.String())
	assert.Contains(t, Predicate(42).String(), "Unknown")
}

func TestProvider(t *testing.T) {
	t.Run("Ball", func(t *testing.T) {
		within, err := Provider(PredicateBall)
		require.NoError(t, err)

		c := []float32{0, 0, 0}
		assert.True(t, within([]float32{1, 0, 0}, c, 1))
		assert.True(t, within([]float32{0.5, 0.5, 0.5}, c, 1))
		// Cube corner is outside the inscribed ball.
		assert.False(t, within([]float32{1, 1, 1}, c, 1))
	})

	t.Run("Cube", func(t *testing.T) {
		within, err := Provider(PredicateCube)
		require.NoError(t, err)

		c := []float32{0, 0, 0}
		assert.True(t, within([]float32{1, 1, 1}, c, 1))
		assert.True(t, within([]float32{-1, 0.5, -0.25}, c, 1))
		assert.False(t, within([]float32{1.01, 0, 0}, c, 1))
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := Provider(Predicate(42))
		assert.Error(t, err)
	})
}
