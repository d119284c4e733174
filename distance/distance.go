package distance

import (
	"fmt"

	"github.com/hupe1980/gridpool/internal/simd"
)

// SquaredL2 calculates the squared L2 (Euclidean) distance between two 3D
// points. Assumes both slices have at least three elements (caller's
// responsibility).
func SquaredL2(a, b []float32) float32 {
	return simd.SquaredL2(a, b)
}

// L2 calculates the true Euclidean distance between two 3D points.
// Assumes both slices have at least three elements (caller's responsibility).
func L2(a, b []float32) float32 {
	return simd.Sqrt(simd.SquaredL2(a, b))
}

// Chebyshev calculates the per-axis maximum distance between two 3D points.
// Assumes both slices have at least three elements (caller's responsibility).
func Chebyshev(a, b []float32) float32 {
	return simd.ChebyshevXYZ(a[0], a[1], a[2], b[0], b[1], b[2])
}

// Predicate represents the spatial predicate bounding a neighborhood search.
type Predicate int

const (
	// PredicateBall accepts points with Euclidean distance <= radius.
	PredicateBall Predicate = iota
	// PredicateCube accepts points whose per-axis absolute offset is <= radius
	// on all three axes.
	PredicateCube
)

func (p Predicate) String() string {
	switch p {
	case PredicateBall:
		return "Ball"
	case PredicateCube:
		return "Cube"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// WithinFunc reports whether point p lies inside the neighborhood of radius r
// around center c. Both slices must have at least three elements.
type WithinFunc func(p, c []float32, r float32) bool

// Provider returns the membership function for the given predicate.
func Provider(p Predicate) (WithinFunc, error) {
	switch p {
	case PredicateBall:
		return withinBall, nil
	case PredicateCube:
		return withinCube, nil
	default:
		return nil, fmt.Errorf("unsupported predicate: %v", p)
	}
}

func withinBall(p, c []float32, r float32) bool {
	return simd.SquaredL2(p, c) <= r*r
}

func withinCube(p, c []float32, r float32) bool {
	return simd.ChebyshevXYZ(p[0], p[1], p[2], c[0], c[1], c[2]) <= r
}
