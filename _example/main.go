package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"time"

	"github.com/hupe1980/gridpool"
	"github.com/hupe1980/gridpool/gridcache"
	"github.com/hupe1980/gridpool/pointcloud"
)

func main() {
	seed := int64(4711)
	numSources := 200000
	numCenters := 2048
	numGrids := 8
	radius := float32(0.05)

	rng := rand.New(rand.NewSource(seed))

	sources, err := pointcloud.Single(randomCoords(rng, numSources))
	if err != nil {
		log.Fatal(err)
	}

	centers, err := pointcloud.Single(randomCoords(rng, numCenters))
	if err != nil {
		log.Fatal(err)
	}

	gridCenters := make([]float32, 0, numCenters*numGrids*3)
	for c := 0; c < numCenters; c++ {
		base := centers.Point(c)
		for g := 0; g < numGrids; g++ {
			gridCenters = append(gridCenters,
				base[0]+(rng.Float32()-0.5)*radius,
				base[1]+(rng.Float32()-0.5)*radius,
				base[2]+(rng.Float32()-0.5)*radius,
			)
		}
	}

	metrics := &gridpool.BasicMetricsCollector{}

	engine, err := gridpool.New(
		gridpool.WithRadius(radius),
		gridpool.WithRadiusMultiplier(1.5),
		gridpool.WithInitialAvgEstimate(4),
		gridpool.WithLogger(gridpool.NewTextLogger(slog.LevelInfo)),
		gridpool.WithMetricsCollector(metrics),
		gridpool.WithResultCache(gridcache.NewMemory()),
	)
	if err != nil {
		log.Fatal(err)
	}

	in := &gridpool.QueryInput{
		Sources:     sources,
		Centers:     centers,
		GridCenters: gridCenters,
		NumGrids:    numGrids,
		CacheKey:    "demo",
	}

	fmt.Println("--- Query ---")
	fmt.Println("Sources:", numSources)
	fmt.Println("Centers:", numCenters)
	fmt.Println("Grids per center:", numGrids)

	start := time.Now()

	res, err := engine.Query(context.Background(), in)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Seconds: %.3f\n\n", time.Since(start).Seconds())
	fmt.Println("Passes:", res.Passes)
	fmt.Println("Candidates consumed:", res.Consumed)
	fmt.Println("Converged estimate:", res.AvgNeighborEstimate)

	dists, idxs := res.At(0, 0)
	fmt.Printf("Center 0, grid 0: idx=%v dist=%v\n", idxs, dists)

	// The cached rerun skips both passes entirely.
	start = time.Now()
	if _, err := engine.Query(context.Background(), in); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nCached rerun seconds: %.4f (hits=%d)\n", time.Since(start).Seconds(), metrics.CacheHits.Load())
}

func randomCoords(rng *rand.Rand, n int) []float32 {
	coords := make([]float32, n*3)
	for i := range coords {
		coords[i] = rng.Float32()
	}
	return coords
}
