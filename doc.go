// Package gridpool computes per-point interpolation grids for point-cloud
// feature pooling.
//
// Given a stacked (batched) set of source points and a stacked set of query
// centers, each with a fixed number of grid sample sub-points, a Query finds
// for every grid sample the three nearest source points within a bounded
// neighborhood of its center, returning true Euclidean distances and flat
// source indices (-1 for unfilled slots).
//
// The search runs in two passes. A gather pass collects, per center, the
// indices of source points satisfying a spatial predicate (ball or cube) into
// a shared flat candidate buffer whose required size is unknown up front; the
// engine discovers it by retrying with a per-center estimate derived from the
// observed demand until the buffer fits. A refine pass then performs exact
// three-nearest-neighbor selection per grid sample against only that center's
// candidate slice.
//
// Basic usage:
//
//	eng, err := gridpool.New(
//	    gridpool.WithRadius(0.8),
//	    gridpool.WithPredicate(distance.PredicateBall),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := eng.Query(ctx, &gridpool.QueryInput{
//	    Sources:     sources,
//	    Centers:     centers,
//	    GridCenters: gridCenters,
//	    NumGrids:    numGrids,
//	})
//
// The converged per-center candidate estimate is returned on the result and
// can seed subsequent queries on similar data to avoid retries.
package gridpool
