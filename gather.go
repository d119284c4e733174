package gridpool

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/gridpool/distance"
	"github.com/hupe1980/gridpool/pointcloud"
)

// gatherArgs carries the per-query state shared by every gather pass, so a
// capacity retry re-scans without re-deriving it.
type gatherArgs struct {
	src         *pointcloud.Stacked
	centers     *pointcloud.Stacked
	centerBatch []int32 // batch element per center, by center index
	radius      float32 // effective gather radius (Radius * RadiusMultiplier)
	within      distance.WithinFunc
	maxSamples  int
}

// gatherPass runs one full candidate scan into buf, filling records with one
// (offset, length) pair per center. Work is partitioned into contiguous
// center chunks across workers; the shared counter is the only cross-worker
// state.
//
// Every accepted candidate advances the counter even when its center's slice
// no longer fits in buf, so the returned total is the true buffer demand.
// consumed > len(buf) signals an insufficient pass whose buffer and records
// must be discarded by the caller.
func (e *Engine) gatherPass(ctx context.Context, a *gatherArgs, buf []int32, records []sliceRecord) (int, error) {
	numCenters := a.centers.NumPoints()
	capacity := len(buf)

	var consumed atomic.Int64

	workers := e.workers(numCenters)
	chunk := (numCenters + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, numCenters)
		if lo >= hi {
			break
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			scratch := make([]int32, 0, scratchHint(a.maxSamples))
			for c := lo; c < hi; c++ {
				scratch = scratch[:0]
				center := a.centers.Point(c)
				start, end := a.src.BatchRange(int(a.centerBatch[c]))

				for p := start; p < end; p++ {
					if e.opts.Skip != nil && e.opts.Skip.Contains(uint32(p)) {
						continue
					}
					if !a.within(a.src.Coords[p*3:p*3+3], center, a.radius) {
						continue
					}
					scratch = append(scratch, int32(p))
					if a.maxSamples > 0 && len(scratch) == a.maxSamples {
						break
					}
				}

				n := len(scratch)
				pos := consumed.Add(int64(n)) - int64(n)
				records[c] = sliceRecord{start: int32(pos), length: int32(n)}

				// On overflow the pass is discarded, so partially fitting
				// slices are not written at all.
				if int(pos)+n <= capacity {
					copy(buf[pos:int(pos)+n], scratch)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(consumed.Load()), nil
}

// scratchHint sizes the per-worker candidate scratch slice.
func scratchHint(maxSamples int) int {
	if maxSamples > 0 {
		return maxSamples
	}
	return 64
}
