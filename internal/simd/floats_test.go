package simd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSquaredL2XYZ(t *testing.T) {
	tests := []struct {
		name     string
		a, b     [3]float32
		expected float32
	}{
		{"Simple", [3]float32{1, 2, 3}, [3]float32{4, 5, 6}, 27},
		{"Zero", [3]float32{0, 0, 0}, [3]float32{0, 0, 0}, 0},
		{"Identical", [3]float32{1, 2, 3}, [3]float32{1, 2, 3}, 0},
		{"Mixed", [3]float32{1, -1, 2}, [3]float32{-1, 1, -2}, 24},
		{"SingleAxis", [3]float32{0, 0, 5}, [3]float32{0, 0, 2}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SquaredL2XYZ(tt.a[0], tt.a[1], tt.a[2], tt.b[0], tt.b[1], tt.b[2])
			assert.InDelta(t, tt.expected, got, 1e-5)

			// Component form and slice form must agree.
			assert.InDelta(t, got, SquaredL2(tt.a[:], tt.b[:]), 1e-6)
		})
	}
}

func TestSquaredL2Batch3(t *testing.T) {
	targets := []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 1,
		-2, 0, 0,
	}
	out := make([]float32, 4)

	SquaredL2Batch3(0, 0, 0, targets, out)
	assert.InDelta(t, float32(0), out[0], 1e-6)
	assert.InDelta(t, float32(1), out[1], 1e-6)
	assert.InDelta(t, float32(3), out[2], 1e-6)
	assert.InDelta(t, float32(4), out[3], 1e-6)

	// Short output buffer limits the batch.
	short := make([]float32, 2)
	SquaredL2Batch3(0, 0, 0, targets, short)
	assert.InDelta(t, float32(1), short[1], 1e-6)
}

func TestChebyshevXYZ(t *testing.T) {
	tests := []struct {
		name     string
		a, b     [3]float32
		expected float32
	}{
		{"Zero", [3]float32{1, 2, 3}, [3]float32{1, 2, 3}, 0},
		{"XDominates", [3]float32{5, 0, 0}, [3]float32{1, 1, 1}, 4},
		{"Negative", [3]float32{-3, 0, 0}, [3]float32{0, 0, 0}, 3},
		{"ZDominates", [3]float32{0, 1, 9}, [3]float32{0, 0, 0}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChebyshevXYZ(tt.a[0], tt.a[1], tt.a[2], tt.b[0], tt.b[1], tt.b[2])
			assert.InDelta(t, tt.expected, got, 1e-6)
		})
	}
}

func TestSqrt(t *testing.T) {
	assert.InDelta(t, float32(3), Sqrt(9), 1e-6)
	assert.InDelta(t, float32(0), Sqrt(0), 1e-6)
}
