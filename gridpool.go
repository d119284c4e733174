package gridpool

import (
	"context"
	"runtime"
	"time"

	"github.com/hupe1980/gridpool/codec"
	"github.com/hupe1980/gridpool/distance"
	"github.com/hupe1980/gridpool/gridcache"
	"github.com/hupe1980/gridpool/pointcloud"
)

// Engine runs two-pass grid queries. It is immutable after construction and
// safe for concurrent use.
type Engine struct {
	opts       Options
	within     distance.WithinFunc
	logger     *Logger
	metrics    MetricsCollector
	cacheCodec codec.Codec
}

// New creates a new engine.
// WithRadius is required; all other options have defaults.
func New(optFns ...func(o *Options)) (*Engine, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Radius <= 0 {
		return nil, &ErrInvalidRadius{Radius: opts.Radius}
	}
	if opts.RadiusMultiplier <= 0 {
		return nil, &ErrInvalidMultiplier{Multiplier: opts.RadiusMultiplier}
	}
	if opts.InitialAvgEstimate <= 0 {
		return nil, &ErrInvalidEstimate{Estimate: opts.InitialAvgEstimate}
	}

	within, err := distance.Provider(opts.Predicate)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		opts:       opts,
		within:     within,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		cacheCodec: opts.CacheCodec,
	}
	if e.logger == nil {
		e.logger = NoopLogger()
	}
	if e.metrics == nil {
		e.metrics = NoopMetricsCollector{}
	}
	if e.cacheCodec == nil {
		e.cacheCodec = codec.Default
	}
	return e, nil
}

// Query computes the three-nearest-neighbor interpolation grids for in.
//
// Fatal input errors abort with no output. Degenerate neighborhoods are not
// errors; their slots carry index -1 (see QueryResult).
func (e *Engine) Query(ctx context.Context, in *QueryInput) (*QueryResult, error) {
	start := time.Now()

	res, err := e.query(ctx, in)

	centers, grids := 0, 0
	if in != nil {
		grids = in.NumGrids
		if in.Centers != nil {
			centers = in.Centers.NumPoints()
		}
	}
	passes, consumed := 0, 0
	if res != nil {
		passes = res.Passes
		consumed = res.Consumed
	}
	e.metrics.RecordQuery(centers, grids, passes, consumed, time.Since(start), err)
	e.logger.LogQuery(ctx, centers, grids, passes, consumed, time.Since(start), err)

	return res, err
}

func (e *Engine) query(ctx context.Context, in *QueryInput) (*QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.validate(in); err != nil {
		return nil, err
	}

	if rc := e.opts.Resources; rc != nil {
		if err := rc.BeginQuery(ctx); err != nil {
			return nil, err
		}
		defer rc.EndQuery()
	}

	if cached, ok := e.cacheLookup(ctx, in); ok {
		return cached, nil
	}

	numCenters := in.Centers.NumPoints()
	out := &QueryResult{
		Distances:           make([]float32, numCenters*in.NumGrids*3),
		Indices:             make([]int32, numCenters*in.NumGrids*3),
		NumCenters:          numCenters,
		NumGrids:            in.NumGrids,
		AvgNeighborEstimate: e.opts.InitialAvgEstimate,
	}
	for i := range out.Indices {
		out.Indices[i] = -1
	}
	if numCenters == 0 {
		return out, nil
	}

	args := &gatherArgs{
		src:         in.Sources,
		centers:     in.Centers,
		centerBatch: centerBatches(in.Centers),
		radius:      e.opts.Radius * e.opts.RadiusMultiplier,
		within:      e.within,
		maxSamples:  e.opts.MaxSamplesPerCenter,
	}

	estimate := e.opts.InitialAvgEstimate
	var (
		buf      []int32
		records  []sliceRecord
		consumed int
		passes   int
		acquired int64
	)
	releaseMem := func() {
		if acquired > 0 && e.opts.Resources != nil {
			e.opts.Resources.ReleaseMemory(acquired)
		}
		acquired = 0
	}
	defer releaseMem()

	// Capacity-retry loop: each pass is a full synchronization barrier. An
	// overflowed pass is discarded entirely since slices past the allocated
	// end were never written.
	for {
		passes++
		capacity := estimate * numCenters

		if rc := e.opts.Resources; rc != nil {
			bytes := int64(capacity)*4 + int64(numCenters)*8
			if err := rc.AcquireMemory(ctx, bytes); err != nil {
				return nil, err
			}
			acquired = bytes
		}

		buf = make([]int32, capacity)
		records = make([]sliceRecord, numCenters)

		var err error
		consumed, err = e.gatherPass(ctx, args, buf, records)
		if err != nil {
			return nil, err
		}

		// The new estimate exactly matches observed demand, so the next pass
		// cannot overflow on stable input.
		estimate = (consumed + numCenters - 1) / numCenters
		if estimate < 1 {
			estimate = 1
		}

		overflowed := consumed > capacity
		e.logger.LogGatherPass(ctx, passes, capacity, consumed, estimate, overflowed)
		if !overflowed {
			break
		}
		releaseMem()
	}

	if err := e.refinePass(ctx, args, in.GridCenters, in.NumGrids, buf[:consumed], records, out); err != nil {
		return nil, err
	}

	out.AvgNeighborEstimate = estimate
	out.Consumed = consumed
	out.Passes = passes

	e.cacheStore(ctx, in, out)
	return out, nil
}

// validate fails fast on fatal input errors before any scan begins.
func (e *Engine) validate(in *QueryInput) error {
	if in == nil || in.Sources == nil || in.Centers == nil {
		return ErrNilInput
	}
	if err := in.Sources.Validate(); err != nil {
		return err
	}
	if err := in.Centers.Validate(); err != nil {
		return err
	}
	if in.Sources.NumBatches() != in.Centers.NumBatches() {
		return &ErrBatchCountMismatch{
			SourceBatches: in.Sources.NumBatches(),
			CenterBatches: in.Centers.NumBatches(),
		}
	}
	if in.NumGrids <= 0 {
		return &ErrInvalidGridCount{NumGrids: in.NumGrids}
	}
	if expected := in.Centers.NumPoints() * in.NumGrids * 3; len(in.GridCenters) != expected {
		return &ErrGridShapeMismatch{GridCoords: len(in.GridCenters), Expected: expected}
	}
	return nil
}

// cacheLookup returns a previously computed result for in.CacheKey, if any.
// Cache failures are logged and treated as misses.
func (e *Engine) cacheLookup(ctx context.Context, in *QueryInput) (*QueryResult, bool) {
	if e.opts.Cache == nil || in.CacheKey == "" {
		return nil, false
	}

	start := time.Now()
	data, ok, err := e.opts.Cache.Get(ctx, in.CacheKey)
	e.logger.LogCacheLookup(ctx, in.CacheKey, ok, err)
	if err != nil || !ok {
		e.metrics.RecordCacheLookup(false, time.Since(start))
		return nil, false
	}

	var res QueryResult
	if err := gridcache.DecodeFrame(data, &res); err != nil {
		e.logger.LogCacheLookup(ctx, in.CacheKey, false, err)
		e.metrics.RecordCacheLookup(false, time.Since(start))
		return nil, false
	}

	e.metrics.RecordCacheLookup(true, time.Since(start))
	return &res, true
}

// cacheStore persists a computed result, best effort.
func (e *Engine) cacheStore(ctx context.Context, in *QueryInput, res *QueryResult) {
	if e.opts.Cache == nil || in.CacheKey == "" {
		return
	}

	data, err := gridcache.EncodeFrame(e.cacheCodec, e.opts.CacheCompression, res)
	if err != nil {
		e.logger.LogCacheStore(ctx, in.CacheKey, 0, err)
		return
	}
	err = e.opts.Cache.Set(ctx, in.CacheKey, data)
	e.logger.LogCacheStore(ctx, in.CacheKey, len(data), err)
}

// workers returns the scan worker count for n units of work.
func (e *Engine) workers(n int) int {
	w := e.opts.Parallelism
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// centerBatches maps each center index to its batch element.
func centerBatches(centers *pointcloud.Stacked) []int32 {
	out := make([]int32, centers.NumPoints())
	for b := 0; b < centers.NumBatches(); b++ {
		start, end := centers.BatchRange(b)
		for c := start; c < end; c++ {
			out[c] = int32(b)
		}
	}
	return out
}
