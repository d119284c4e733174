package gridpool

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/gridpool/internal/simd"
	"github.com/hupe1980/gridpool/internal/topk"
)

// refinePass selects, for every grid sample of every center, the three
// nearest source points from that center's candidate slice only. Distances
// are written as true Euclidean distances in ascending order; out.Indices
// must be pre-filled with -1 so unfilled slots keep the sentinel.
func (e *Engine) refinePass(ctx context.Context, a *gatherArgs, gridCenters []float32, numGrids int, buf []int32, records []sliceRecord, out *QueryResult) error {
	numCenters := a.centers.NumPoints()

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

			coords := a.src.Coords
			best := topk.NewNearest(3)

			for c := lo; c < hi; c++ {
				rec := records[c]
				slice := buf[rec.start : rec.start+rec.length]

				for grid := 0; grid < numGrids; grid++ {
					base := (c*numGrids + grid) * 3
					gx := gridCenters[base]
					gy := gridCenters[base+1]
					gz := gridCenters[base+2]

					best.Reset()
					for _, idx := range slice {
						p := coords[idx*3 : idx*3+3]
						best.Offer(idx, simd.SquaredL2XYZ(gx, gy, gz, p[0], p[1], p[2]))
					}

					for s := 0; s < best.Len(); s++ {
						item := best.Item(s)
						out.Distances[base+s] = simd.Sqrt(item.Distance)
						out.Indices[base+s] = item.Index
					}
				}
			}
			return nil
		})
	}

	return g.Wait()
}
