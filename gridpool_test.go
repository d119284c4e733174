package gridpool

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gridpool/distance"
	"github.com/hupe1980/gridpool/gridcache"
	"github.com/hupe1980/gridpool/pointcloud"
)

// gridSamples flattens grid sample coordinates for a single center.
func gridSamples(samples ...[3]float32) []float32 {
	out := make([]float32, 0, len(samples)*3)
	for _, s := range samples {
		out = append(out, s[0], s[1], s[2])
	}
	return out
}

// clusterSources is five points within 0.1 of the origin plus two far
// outliers, flat indices 5 and 6.
func clusterSources(t *testing.T) *pointcloud.Stacked {
	t.Helper()
	src, err := pointcloud.Single([]float32{
		0.1, 0, 0,
		-0.1, 0, 0,
		0, 0.1, 0,
		0, -0.1, 0,
		0, 0, 0.1,
		5, 5, 5,
		-5, -5, -5,
	})
	require.NoError(t, err)
	return src
}

func originCenter(t *testing.T) *pointcloud.Stacked {
	t.Helper()
	centers, err := pointcloud.Single([]float32{0, 0, 0})
	require.NoError(t, err)
	return centers
}

func TestQueryCluster(t *testing.T) {
	e, err := New(WithRadius(1))
	require.NoError(t, err)

	res, err := e.Query(context.Background(), &QueryInput{
		Sources:     clusterSources(t),
		Centers:     originCenter(t),
		GridCenters: gridSamples([3]float32{0, 0, 0}),
		NumGrids:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Consumed)
	assert.Equal(t, 1, res.Passes)
	assert.GreaterOrEqual(t, res.AvgNeighborEstimate*res.NumCenters, res.Consumed)

	dists, idxs := res.At(0, 0)
	seen := map[int32]bool{}
	for s := 0; s < 3; s++ {
		assert.GreaterOrEqual(t, idxs[s], int32(0))
		assert.Less(t, idxs[s], int32(5), "outliers must not appear")
		assert.False(t, seen[idxs[s]], "indices must be distinct")
		seen[idxs[s]] = true
		assert.InDelta(t, 0.1, dists[s], 1e-6)
		if s > 0 {
			assert.LessOrEqual(t, dists[s-1], dists[s])
		}
	}
}

func TestQueryDistancesAreEuclidean(t *testing.T) {
	e, err := New(WithRadius(2))
	require.NoError(t, err)

	src, err := pointcloud.Single([]float32{1.5, 0, 0})
	require.NoError(t, err)

	res, err := e.Query(context.Background(), &QueryInput{
		Sources:     src,
		Centers:     originCenter(t),
		GridCenters: gridSamples([3]float32{0.5, 0, 0}),
		NumGrids:    1,
	})
	require.NoError(t, err)

	dists, idxs := res.At(0, 0)
	assert.Equal(t, int32(0), idxs[0])
	assert.InDelta(t, 1.0, dists[0], 1e-6)
	assert.Equal(t, int32(-1), idxs[1])
	assert.Equal(t, int32(-1), idxs[2])
}

func TestQueryCapacityRetry(t *testing.T) {
	coords := make([]float32, 0, 50*3)
	for i := 0; i < 50; i++ {
		coords = append(coords, float32(i)*0.001, 0, 0)
	}
	src, err := pointcloud.Single(coords)
	require.NoError(t, err)

	metrics := &BasicMetricsCollector{}
	e, err := New(
		WithRadius(1),
		WithInitialAvgEstimate(1),
		WithParallelism(1),
		WithMetricsCollector(metrics),
	)
	require.NoError(t, err)

	in := &QueryInput{
		Sources:     src,
		Centers:     originCenter(t),
		GridCenters: gridSamples([3]float32{0, 0, 0}),
		NumGrids:    1,
	}

	res, err := e.Query(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 50, res.Consumed)
	assert.Equal(t, 2, res.Passes, "the undersized first pass must be retried")
	assert.Equal(t, 50, res.AvgNeighborEstimate)
	assert.GreaterOrEqual(t, res.AvgNeighborEstimate*res.NumCenters, res.Consumed)
	assert.Equal(t, int64(1), metrics.CapacityRetries.Load())

	// Seeding with the converged estimate resolves in a single pass with
	// identical output.
	seeded, err := New(
		WithRadius(1),
		WithInitialAvgEstimate(res.AvgNeighborEstimate),
		WithParallelism(1),
	)
	require.NoError(t, err)

	res2, err := seeded.Query(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, res2.Passes)
	assert.Equal(t, res.Distances, res2.Distances)
	assert.Equal(t, res.Indices, res2.Indices)
	assert.Equal(t, res.AvgNeighborEstimate, res2.AvgNeighborEstimate)
}

func TestQueryMaxSamplesPerCenter(t *testing.T) {
	e, err := New(WithRadius(1), WithMaxSamplesPerCenter(2), WithParallelism(1))
	require.NoError(t, err)

	res, err := e.Query(context.Background(), &QueryInput{
		Sources:     clusterSources(t),
		Centers:     originCenter(t),
		GridCenters: gridSamples([3]float32{0, 0, 0}),
		NumGrids:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Consumed)

	// Scan order is source order, so the cap keeps the first two qualifiers.
	_, idxs := res.At(0, 0)
	assert.Equal(t, int32(0), idxs[0])
	assert.Equal(t, int32(1), idxs[1])
	assert.Equal(t, int32(-1), idxs[2])
}

func TestQueryEmptyNeighborhood(t *testing.T) {
	e, err := New(WithRadius(0.5))
	require.NoError(t, err)

	src, err := pointcloud.Single([]float32{100, 100, 100})
	require.NoError(t, err)

	res, err := e.Query(context.Background(), &QueryInput{
		Sources:     src,
		Centers:     originCenter(t),
		GridCenters: gridSamples([3]float32{0, 0, 0}, [3]float32{0.1, 0, 0}),
		NumGrids:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Consumed)
	for i, idx := range res.Indices {
		assert.Equal(t, int32(-1), idx)
		assert.Zero(t, res.Distances[i])
	}
}

func TestQueryCubePredicate(t *testing.T) {
	src, err := pointcloud.Single([]float32{0.9, 0.9, 0.9})
	require.NoError(t, err)

	in := &QueryInput{
		Sources:     src,
		Centers:     originCenter(t),
		GridCenters: gridSamples([3]float32{0, 0, 0}),
		NumGrids:    1,
	}

	// Euclidean distance ~1.56 puts the point outside the unit ball but
	// inside the unit cube.
	ball, err := New(WithRadius(1))
	require.NoError(t, err)
	res, err := ball.Query(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Consumed)

	cube, err := New(WithRadius(1), WithPredicate(distance.PredicateCube))
	require.NoError(t, err)
	res, err = cube.Query(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Consumed)

	dists, idxs := res.At(0, 0)
	assert.Equal(t, int32(0), idxs[0])
	assert.InDelta(t, math.Sqrt(3*0.9*0.9), float64(dists[0]), 1e-5)
}

func TestQueryRadiusMultiplier(t *testing.T) {
	src, err := pointcloud.Single([]float32{1.5, 0, 0})
	require.NoError(t, err)

	in := &QueryInput{
		Sources:     src,
		Centers:     originCenter(t),
		GridCenters: gridSamples([3]float32{0, 0, 0}),
		NumGrids:    1,
	}

	plain, err := New(WithRadius(1))
	require.NoError(t, err)
	res, err := plain.Query(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Consumed)

	widened, err := New(WithRadius(1), WithRadiusMultiplier(2))
	require.NoError(t, err)
	res, err = widened.Query(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Consumed)
}

func TestQueryBatchIsolation(t *testing.T) {
	// One source point per batch element, both near the shared center
	// coordinates. Each center must see only its own batch element.
	src, err := pointcloud.FromClouds(
		[]float32{0, 0, 0},
		[]float32{0, 0, 0.5},
	)
	require.NoError(t, err)

	centers, err := pointcloud.FromClouds(
		[]float32{0, 0, 0},
		[]float32{0, 0, 0},
	)
	require.NoError(t, err)

	e, err := New(WithRadius(1))
	require.NoError(t, err)

	res, err := e.Query(context.Background(), &QueryInput{
		Sources:     src,
		Centers:     centers,
		GridCenters: gridSamples([3]float32{0, 0, 0}, [3]float32{0, 0, 0}),
		NumGrids:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Consumed)

	dists, idxs := res.At(0, 0)
	assert.Equal(t, int32(0), idxs[0])
	assert.Zero(t, dists[0])
	assert.Equal(t, int32(-1), idxs[1])

	dists, idxs = res.At(1, 0)
	assert.Equal(t, int32(1), idxs[0], "centers must not see foreign batch elements")
	assert.InDelta(t, 0.5, dists[0], 1e-6)
	assert.Equal(t, int32(-1), idxs[1])
}

func TestQuerySkipBitmap(t *testing.T) {
	src, err := pointcloud.Single([]float32{
		0, 0, 0,
		0.1, 0, 0,
		0.2, 0, 0,
	})
	require.NoError(t, err)

	skip := roaring.New()
	skip.Add(0)

	e, err := New(WithRadius(1), WithSkip(skip))
	require.NoError(t, err)

	res, err := e.Query(context.Background(), &QueryInput{
		Sources:     src,
		Centers:     originCenter(t),
		GridCenters: gridSamples([3]float32{0, 0, 0}),
		NumGrids:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Consumed)
	_, idxs := res.At(0, 0)
	assert.NotContains(t, idxs[:], int32(0))
	assert.Contains(t, idxs[:], int32(1))
	assert.Contains(t, idxs[:], int32(2))
}

func TestQueryMultipleGrids(t *testing.T) {
	src, err := pointcloud.Single([]float32{
		-0.4, 0, 0,
		0.4, 0, 0,
	})
	require.NoError(t, err)

	e, err := New(WithRadius(1))
	require.NoError(t, err)

	res, err := e.Query(context.Background(), &QueryInput{
		Sources: src,
		Centers: originCenter(t),
		GridCenters: gridSamples(
			[3]float32{-0.3, 0, 0},
			[3]float32{0.3, 0, 0},
		),
		NumGrids: 2,
	})
	require.NoError(t, err)

	_, idxs := res.At(0, 0)
	assert.Equal(t, int32(0), idxs[0], "left sample is nearest the left point")

	_, idxs = res.At(0, 1)
	assert.Equal(t, int32(1), idxs[0], "right sample is nearest the right point")
}

func TestQueryEmptyCenters(t *testing.T) {
	centers, err := pointcloud.New(nil, []int32{0})
	require.NoError(t, err)

	src, err := pointcloud.Single([]float32{0, 0, 0})
	require.NoError(t, err)

	e, err := New(WithRadius(1))
	require.NoError(t, err)

	res, err := e.Query(context.Background(), &QueryInput{
		Sources:  src,
		Centers:  centers,
		NumGrids: 4,
	})
	require.NoError(t, err)
	assert.Zero(t, res.NumCenters)
	assert.Empty(t, res.Indices)
	assert.Zero(t, res.Consumed)
}

func TestQueryResultCache(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	e, err := New(
		WithRadius(1),
		WithResultCache(gridcache.NewMemory()),
		WithMetricsCollector(metrics),
	)
	require.NoError(t, err)

	in := &QueryInput{
		Sources:     clusterSources(t),
		Centers:     originCenter(t),
		GridCenters: gridSamples([3]float32{0, 0, 0}),
		NumGrids:    1,
		CacheKey:    "cluster@r1",
	}

	first, err := e.Query(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.CacheMisses.Load())

	second, err := e.Query(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.CacheHits.Load())

	assert.Equal(t, first.Distances, second.Distances)
	assert.Equal(t, first.Indices, second.Indices)
	assert.Equal(t, first.Consumed, second.Consumed)
	assert.Equal(t, first.AvgNeighborEstimate, second.AvgNeighborEstimate)
}

func TestQueryContextCanceled(t *testing.T) {
	e, err := New(WithRadius(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Query(ctx, &QueryInput{
		Sources:     clusterSources(t),
		Centers:     originCenter(t),
		GridCenters: gridSamples([3]float32{0, 0, 0}),
		NumGrids:    1,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkQuery(b *testing.B) {
	coords := make([]float32, 4096*3)
	rng := uint32(1)
	for i := range coords {
		// xorshift keeps the setup allocation-free and deterministic.
		rng ^= rng << 13
		rng ^= rng >> 17
		rng ^= rng << 5
		coords[i] = float32(rng%1000) / 1000
	}
	src, err := pointcloud.Single(coords)
	require.NoError(b, err)

	centers, err := pointcloud.Single(coords[:256*3])
	require.NoError(b, err)

	gridCenters := make([]float32, 256*4*3)
	copy(gridCenters, coords)

	e, err := New(WithRadius(0.1), WithInitialAvgEstimate(8))
	require.NoError(b, err)

	in := &QueryInput{
		Sources:     src,
		Centers:     centers,
		GridCenters: gridCenters,
		NumGrids:    4,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Query(context.Background(), in); err != nil {
			b.Fatal(err)
		}
	}
}

func TestNewValidation(t *testing.T) {
	t.Run("MissingRadius", func(t *testing.T) {
		_, err := New()
		var target *ErrInvalidRadius
		require.ErrorAs(t, err, &target)
	})

	t.Run("BadMultiplier", func(t *testing.T) {
		_, err := New(WithRadius(1), WithRadiusMultiplier(0))
		var target *ErrInvalidMultiplier
		require.ErrorAs(t, err, &target)
	})

	t.Run("BadEstimate", func(t *testing.T) {
		_, err := New(WithRadius(1), WithInitialAvgEstimate(0))
		var target *ErrInvalidEstimate
		require.ErrorAs(t, err, &target)
	})

	t.Run("BadPredicate", func(t *testing.T) {
		_, err := New(WithRadius(1), WithPredicate(distance.Predicate(99)))
		require.Error(t, err)
	})
}

func TestQueryValidation(t *testing.T) {
	ctx := context.Background()

	e, err := New(WithRadius(1))
	require.NoError(t, err)

	src := clusterSources(t)
	centers := originCenter(t)

	t.Run("NilInput", func(t *testing.T) {
		_, err := e.Query(ctx, nil)
		assert.ErrorIs(t, err, ErrNilInput)

		_, err = e.Query(ctx, &QueryInput{Centers: centers})
		assert.ErrorIs(t, err, ErrNilInput)
	})

	t.Run("BatchCountMismatch", func(t *testing.T) {
		twoBatch, err := pointcloud.FromClouds(
			[]float32{0, 0, 0},
			[]float32{1, 1, 1},
		)
		require.NoError(t, err)

		_, err = e.Query(ctx, &QueryInput{
			Sources:     src,
			Centers:     twoBatch,
			GridCenters: gridSamples([3]float32{0, 0, 0}, [3]float32{1, 1, 1}),
			NumGrids:    1,
		})
		var target *ErrBatchCountMismatch
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 1, target.SourceBatches)
		assert.Equal(t, 2, target.CenterBatches)
	})

	t.Run("BadGridCount", func(t *testing.T) {
		_, err := e.Query(ctx, &QueryInput{Sources: src, Centers: centers})
		var target *ErrInvalidGridCount
		require.ErrorAs(t, err, &target)
	})

	t.Run("GridShapeMismatch", func(t *testing.T) {
		_, err := e.Query(ctx, &QueryInput{
			Sources:     src,
			Centers:     centers,
			GridCenters: []float32{0, 0},
			NumGrids:    1,
		})
		var target *ErrGridShapeMismatch
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 3, target.Expected)
	})

	t.Run("InvalidCloud", func(t *testing.T) {
		bad := &pointcloud.Stacked{Coords: []float32{0, 0}, BatchCounts: []int32{1}}
		_, err := e.Query(ctx, &QueryInput{
			Sources:     bad,
			Centers:     centers,
			GridCenters: gridSamples([3]float32{0, 0, 0}),
			NumGrids:    1,
		})
		var target *pointcloud.ErrCoordShape
		require.True(t, errors.As(err, &target))
	})
}
