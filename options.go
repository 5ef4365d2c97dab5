package cellknn

import (
	"github.com/hupe1980/cellknn/index"
	"github.com/hupe1980/cellknn/index/annoy"
	"github.com/hupe1980/cellknn/index/hnsw"
)

type options struct {
	useKey        string
	space         index.Space
	k             int
	parallelism   int
	logger        *Logger
	useForest     bool
	hnswOptions   []func(*hnsw.Options)
	forestOptions []func(*annoy.Options)
}

// Option configures the KNN constructor.
type Option func(*options)

// WithUseKey sets the vector-source key of the embedding matrix the
// index is built over. Default: "X_pca".
func WithUseKey(useKey string) Option {
	return func(o *options) {
		o.useKey = useKey
	}
}

// WithSpace sets the distance space of the index.
// Default: index.SpaceEuclidean.
func WithSpace(space index.Space) Option {
	return func(o *options) {
		o.space = space
	}
}

// WithK sets the default number of neighbors per query. Individual
// queries may override it via WithQueryK. Default: 20.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithParallelism bounds the number of concurrent index lookups for
// batch queries. Values <= 1 run sequentially. Default: 1.
func WithParallelism(parallelism int) Option {
	return func(o *options) {
		o.parallelism = parallelism
	}
}

// WithLogger configures structured logging. Pass nil to disable.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithHNSW selects the graph-based index backend (the default) and
// applies backend options.
func WithHNSW(optFns ...func(*hnsw.Options)) Option {
	return func(o *options) {
		o.useForest = false
		o.hnswOptions = optFns
	}
}

// WithForest selects the tree-based (random-projection forest) index
// backend and applies backend options.
func WithForest(optFns ...func(*annoy.Options)) Option {
	return func(o *options) {
		o.useForest = true
		o.forestOptions = optFns
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		useKey:      "X_pca",
		space:       index.SpaceEuclidean,
		k:           20,
		parallelism: 1,
		logger:      NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

type queryOptions struct {
	k      int
	obsKey string
	counts bool
}

// QueryOption configures a single Query call.
type QueryOption func(*queryOptions)

// WithObsKey aggregates the named metadata column over each query's
// neighbors. Without further options the result is the per-query
// majority label.
func WithObsKey(obsKey string) QueryOption {
	return func(o *queryOptions) {
		o.obsKey = obsKey
	}
}

// WithCounts returns the full per-query count table instead of reducing
// it to majority labels. Only meaningful together with WithObsKey.
func WithCounts() QueryOption {
	return func(o *queryOptions) {
		o.counts = true
	}
}

// WithQueryK overrides the KNN's default neighbor count for one call.
func WithQueryK(k int) QueryOption {
	return func(o *queryOptions) {
		o.k = k
	}
}
