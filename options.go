package gridpool

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/gridpool/codec"
	"github.com/hupe1980/gridpool/distance"
	"github.com/hupe1980/gridpool/gridcache"
	"github.com/hupe1980/gridpool/resource"
)

// Options contains configuration options for the engine.
type Options struct {
	// Radius is the maximum neighbor distance for candidate gathering.
	// Required; must be > 0.
	Radius float32

	// RadiusMultiplier scales Radius for the gather pass only: the effective
	// gather radius is Radius * RadiusMultiplier. A multiplier > 1 widens the
	// candidate pool so grid samples near the neighborhood boundary still see
	// enough candidates. Must be > 0.
	RadiusMultiplier float32

	// MaxSamplesPerCenter caps the candidates accepted per query center.
	// Zero or negative means unlimited.
	MaxSamplesPerCenter int

	// Predicate selects the neighborhood shape (ball or cube).
	Predicate distance.Predicate

	// InitialAvgEstimate seeds the per-center candidate-count guess used to
	// size the shared buffer on the first gather pass. Must be > 0. Feeding
	// back QueryResult.AvgNeighborEstimate from a prior query on similar data
	// avoids capacity retries.
	InitialAvgEstimate int

	// Parallelism bounds the number of concurrent scan workers.
	// Zero or negative means GOMAXPROCS.
	Parallelism int

	// Skip marks flat source indices to ignore during gathering
	// (e.g. padding or invalidated points). May be nil.
	Skip *roaring.Bitmap

	// Logger receives structured operation logs. Nil means no logging.
	Logger *Logger

	// Metrics receives operational metrics. Nil means no collection.
	Metrics MetricsCollector

	// Resources enforces global memory/concurrency budgets across engines.
	// May be nil.
	Resources *resource.Controller

	// Cache persists computed results keyed by QueryInput.CacheKey.
	// May be nil.
	Cache gridcache.Store

	// CacheCodec encodes results for the cache. Nil means codec.Default.
	CacheCodec codec.Codec

	// CacheCompression selects the block compression for cached results.
	CacheCompression gridcache.Compression
}

// DefaultOptions contains the default configuration options for the engine.
var DefaultOptions = Options{
	RadiusMultiplier:   1,
	Predicate:          distance.PredicateBall,
	InitialAvgEstimate: 16,
	CacheCompression:   gridcache.CompressionZSTD,
}

// WithRadius sets the maximum neighbor distance.
func WithRadius(r float32) func(o *Options) {
	return func(o *Options) {
		o.Radius = r
	}
}

// WithRadiusMultiplier scales the effective gather radius.
func WithRadiusMultiplier(m float32) func(o *Options) {
	return func(o *Options) {
		o.RadiusMultiplier = m
	}
}

// WithMaxSamplesPerCenter caps candidates accepted per center.
// Zero or negative means unlimited.
func WithMaxSamplesPerCenter(n int) func(o *Options) {
	return func(o *Options) {
		o.MaxSamplesPerCenter = n
	}
}

// WithPredicate selects the neighborhood shape.
func WithPredicate(p distance.Predicate) func(o *Options) {
	return func(o *Options) {
		o.Predicate = p
	}
}

// WithInitialAvgEstimate seeds the per-center candidate-count guess.
func WithInitialAvgEstimate(n int) func(o *Options) {
	return func(o *Options) {
		o.InitialAvgEstimate = n
	}
}

// WithParallelism bounds concurrent scan workers.
func WithParallelism(n int) func(o *Options) {
	return func(o *Options) {
		o.Parallelism = n
	}
}

// WithSkip marks flat source indices to ignore during gathering.
func WithSkip(skip *roaring.Bitmap) func(o *Options) {
	return func(o *Options) {
		o.Skip = skip
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(m MetricsCollector) func(o *Options) {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithResourceController sets a shared resource controller.
func WithResourceController(c *resource.Controller) func(o *Options) {
	return func(o *Options) {
		o.Resources = c
	}
}

// WithResultCache enables result persistence for inputs carrying a CacheKey.
func WithResultCache(store gridcache.Store) func(o *Options) {
	return func(o *Options) {
		o.Cache = store
	}
}

// WithCacheCodec sets the codec used to encode cached results.
func WithCacheCodec(c codec.Codec) func(o *Options) {
	return func(o *Options) {
		o.CacheCodec = c
	}
}

// WithCacheCompression sets the compression used for cached results.
func WithCacheCompression(c gridcache.Compression) func(o *Options) {
	return func(o *Options) {
		o.CacheCompression = c
	}
}
