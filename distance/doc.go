// Package distance provides the public API for 3D point distances and the
// neighborhood predicates used to bound candidate gathering.
//
// A predicate decides whether a source point belongs to the local
// neighborhood of a query center: within a Euclidean ball (PredicateBall) or
// within an axis-aligned cube of half-width radius (PredicateCube).
package distance
