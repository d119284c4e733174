package simd

import "math"

// SquaredL2XYZ calculates the squared L2 distance between two 3D points given
// by their components. This is the innermost kernel of both scan passes.
func SquaredL2XYZ(ax, ay, az, bx, by, bz float32) float32 {
	dx := ax - bx
	dy := ay - by
	dz := az - bz
	return dx*dx + dy*dy + dz*dz
}

// SquaredL2 calculates the squared L2 distance between two 3D points.
//
// SAFETY: This function assumes len(a) >= 3 and len(b) >= 3.
// It does NOT perform bounds checks for performance reasons.
// Callers MUST ensure lengths match to avoid out-of-range reads.
func SquaredL2(a, b []float32) float32 {
	return SquaredL2XYZ(a[0], a[1], a[2], b[0], b[1], b[2])
}

// SquaredL2Batch3 calculates squared L2 distances from one query point to a
// batch of 3D points. targets is a flattened array of N points (x, y, z
// triples). out must have length N (len(targets) / 3).
func SquaredL2Batch3(qx, qy, qz float32, targets []float32, out []float32) {
	n := len(targets) / 3
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		off := i * 3
		out[i] = SquaredL2XYZ(qx, qy, qz, targets[off], targets[off+1], targets[off+2])
	}
}

// ChebyshevXYZ calculates the Chebyshev (per-axis maximum) distance between
// two 3D points. A point lies inside an axis-aligned cube of half-width r
// around q exactly when ChebyshevXYZ(p, q) <= r.
func ChebyshevXYZ(ax, ay, az, bx, by, bz float32) float32 {
	dx := absf(ax - bx)
	dy := absf(ay - by)
	dz := absf(az - bz)
	m := dx
	if dy > m {
		m = dy
	}
	if dz > m {
		m = dz
	}
	return m
}

// Sqrt returns the square root of x as float32.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
