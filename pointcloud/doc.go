// Package pointcloud provides the stacked point-set model shared by the
// gather and refine passes.
//
// A Stacked holds one or more point clouds flattened into a single coordinate
// array, partitioned into contiguous per-batch-element runs by a count
// vector. Batch element i owns the points in [sum(counts[:i]),
// sum(counts[:i])+counts[i]).
package pointcloud
