package gridpool

import (
	"errors"
	"fmt"
)

var (
	// ErrNilInput is returned when the query input or one of its point sets is nil.
	ErrNilInput = errors.New("gridpool: nil query input")
)

// ErrBatchCountMismatch indicates source and center batch-count arrays of
// different lengths. Query centers are searched against the positionally
// matching source batch element, so the partitions must align.
type ErrBatchCountMismatch struct {
	SourceBatches int
	CenterBatches int
}

func (e *ErrBatchCountMismatch) Error() string {
	return fmt.Sprintf("batch count mismatch: %d source batch elements, %d center batch elements", e.SourceBatches, e.CenterBatches)
}

// ErrGridShapeMismatch indicates a grid-center array whose length disagrees
// with numCenters x numGrids x 3.
type ErrGridShapeMismatch struct {
	GridCoords int
	Expected   int
}

func (e *ErrGridShapeMismatch) Error() string {
	return fmt.Sprintf("grid shape mismatch: %d grid coordinates, expected %d", e.GridCoords, e.Expected)
}

// ErrInvalidRadius indicates a non-positive search radius.
type ErrInvalidRadius struct {
	Radius float32
}

func (e *ErrInvalidRadius) Error() string {
	return fmt.Sprintf("invalid search radius: %g", e.Radius)
}

// ErrInvalidMultiplier indicates a non-positive radius multiplier.
type ErrInvalidMultiplier struct {
	Multiplier float32
}

func (e *ErrInvalidMultiplier) Error() string {
	return fmt.Sprintf("invalid radius multiplier: %g", e.Multiplier)
}

// ErrInvalidGridCount indicates a non-positive number of grid samples per center.
type ErrInvalidGridCount struct {
	NumGrids int
}

func (e *ErrInvalidGridCount) Error() string {
	return fmt.Sprintf("invalid grid sample count: %d", e.NumGrids)
}

// ErrInvalidEstimate indicates a non-positive initial per-center candidate estimate.
type ErrInvalidEstimate struct {
	Estimate int
}

func (e *ErrInvalidEstimate) Error() string {
	return fmt.Sprintf("invalid initial neighbor estimate: %d", e.Estimate)
}
