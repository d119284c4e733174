package pointcloud

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when a stacked set has no batch elements.
var ErrEmpty = errors.New("pointcloud: no batch elements")

// ErrCoordShape indicates a coordinate array whose length disagrees with the
// batch counts.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCoordShape struct {
	CoordLen int
	Expected int
	cause    error
}

func (e *ErrCoordShape) Error() string {
	return fmt.Sprintf("pointcloud: coordinate length %d, batch counts require %d", e.CoordLen, e.Expected)
}

func (e *ErrCoordShape) Unwrap() error { return e.cause }

// ErrNegativeCount indicates a negative batch count.
type ErrNegativeCount struct {
	Batch int
	Count int32
}

func (e *ErrNegativeCount) Error() string {
	return fmt.Sprintf("pointcloud: batch element %d has negative count %d", e.Batch, e.Count)
}

// Stacked represents one or more point clouds flattened into a single
// coordinate array.
//
// Coords holds x, y, z triples; len(Coords) must equal 3 * sum(BatchCounts).
// Counts of zero are legal (empty batch elements).
type Stacked struct {
	Coords      []float32
	BatchCounts []int32

	// offsets[i] is the first point index owned by batch element i;
	// offsets[len(BatchCounts)] is the total point count.
	offsets []int32
}

// New creates a Stacked from a flat coordinate array and batch counts.
func New(coords []float32, batchCounts []int32) (*Stacked, error) {
	s := &Stacked{Coords: coords, BatchCounts: batchCounts}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Single creates a Stacked holding one batch element with all points.
func Single(coords []float32) (*Stacked, error) {
	if len(coords)%3 != 0 {
		return nil, &ErrCoordShape{CoordLen: len(coords), Expected: len(coords) / 3 * 3}
	}
	return New(coords, []int32{int32(len(coords) / 3)})
}

// FromClouds creates a Stacked from per-cloud flat coordinate arrays, one
// batch element per cloud.
func FromClouds(clouds ...[]float32) (*Stacked, error) {
	if len(clouds) == 0 {
		return nil, ErrEmpty
	}

	total := 0
	counts := make([]int32, len(clouds))
	for i, c := range clouds {
		if len(c)%3 != 0 {
			return nil, &ErrCoordShape{CoordLen: len(c), Expected: len(c) / 3 * 3}
		}
		counts[i] = int32(len(c) / 3)
		total += len(c)
	}

	coords := make([]float32, 0, total)
	for _, c := range clouds {
		coords = append(coords, c...)
	}
	return New(coords, counts)
}

// Validate checks the coordinate/count shape and (re)builds the offset table.
// It must be called after any direct mutation of Coords or BatchCounts.
func (s *Stacked) Validate() error {
	if len(s.BatchCounts) == 0 {
		return ErrEmpty
	}

	offsets := make([]int32, len(s.BatchCounts)+1)
	var sum int32
	for i, c := range s.BatchCounts {
		if c < 0 {
			return &ErrNegativeCount{Batch: i, Count: c}
		}
		offsets[i] = sum
		sum += c
	}
	offsets[len(s.BatchCounts)] = sum

	if int(sum)*3 != len(s.Coords) {
		return &ErrCoordShape{CoordLen: len(s.Coords), Expected: int(sum) * 3}
	}

	s.offsets = offsets
	return nil
}

// NumPoints returns the total number of points across all batch elements.
func (s *Stacked) NumPoints() int {
	return len(s.Coords) / 3
}

// NumBatches returns the number of batch elements.
func (s *Stacked) NumBatches() int {
	return len(s.BatchCounts)
}

// BatchRange returns the half-open point-index range [start, end) owned by
// batch element i. Requires a prior successful Validate (New validates).
func (s *Stacked) BatchRange(i int) (start, end int) {
	return int(s.offsets[i]), int(s.offsets[i+1])
}

// Point returns the coordinate triple of point i.
// The returned slice aliases the underlying array; treat it as read-only.
func (s *Stacked) Point(i int) []float32 {
	return s.Coords[i*3 : i*3+3]
}

// Centroid returns the arithmetic mean of batch element i's points.
// ok is false for an empty batch element.
func (s *Stacked) Centroid(i int) (centroid [3]float32, ok bool) {
	start, end := s.BatchRange(i)
	if start == end {
		return centroid, false
	}

	var sx, sy, sz float64
	for p := start; p < end; p++ {
		sx += float64(s.Coords[p*3])
		sy += float64(s.Coords[p*3+1])
		sz += float64(s.Coords[p*3+2])
	}
	n := float64(end - start)
	centroid[0] = float32(sx / n)
	centroid[1] = float32(sy / n)
	centroid[2] = float32(sz / n)
	return centroid, true
}
