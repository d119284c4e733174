package gridpool

import (
	"github.com/hupe1980/gridpool/pointcloud"
)

// QueryInput describes one grid query over a stacked point-cloud set.
type QueryInput struct {
	// Sources are the points searched for neighbors.
	Sources *pointcloud.Stacked

	// Centers are the query centers. The i-th center batch element is
	// searched only against the i-th source batch element.
	Centers *pointcloud.Stacked

	// GridCenters holds the grid sample coordinates, flattened as
	// numCenters x NumGrids x 3.
	GridCenters []float32

	// NumGrids is the number of grid samples per center. Must be > 0.
	NumGrids int

	// CacheKey, if non-empty and the engine has a result cache, identifies
	// this input for result reuse. Callers are responsible for key uniqueness.
	CacheKey string
}

// QueryResult holds the three-nearest-neighbor grids for one query.
//
// Distances and Indices are flattened as numCenters x numGrids x 3. Distances
// are true Euclidean distances (square root applied). Unfilled slots carry
// index -1 and distance 0; a center with an empty candidate slice yields all
// three slots unfilled for each of its grid samples.
type QueryResult struct {
	Distances []float32 `json:"distances"`
	Indices   []int32   `json:"indices"`

	NumCenters int `json:"num_centers"`
	NumGrids   int `json:"num_grids"`

	// AvgNeighborEstimate is the converged per-center candidate estimate.
	// Seeding a subsequent query with it via WithInitialAvgEstimate avoids
	// capacity retries on similar data.
	AvgNeighborEstimate int `json:"avg_neighbor_estimate"`

	// Consumed is the total number of candidates accepted by the final
	// gather pass.
	Consumed int `json:"consumed"`

	// Passes is the number of gather passes run (1 = no capacity retry).
	Passes int `json:"passes"`
}

// At returns the three (distance, index) pairs for the given center and grid
// sample, ordered by ascending distance.
func (r *QueryResult) At(center, grid int) (distances [3]float32, indices [3]int32) {
	base := (center*r.NumGrids + grid) * 3
	copy(distances[:], r.Distances[base:base+3])
	copy(indices[:], r.Indices[base:base+3])
	return distances, indices
}

// sliceRecord locates one center's candidates within the shared buffer.
type sliceRecord struct {
	start  int32
	length int32
}
