// Package simd provides the low-level float32 distance kernels used by the
// gather and refine passes.
//
// All coordinates are 3-wide (x, y, z). At this width the scalar loops below
// are already at the throughput limit of the surrounding scans, so there is no
// runtime capability dispatch; every kernel is a plain Go loop the compiler
// can keep in registers.
package simd
