package cellknn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/cellknn/index"
	"github.com/hupe1980/cellknn/index/annoy"
	"github.com/hupe1980/cellknn/index/hnsw"
	"github.com/hupe1980/cellknn/metadata"
	"github.com/hupe1980/cellknn/neighbors"
	"github.com/hupe1980/cellknn/source"
	"github.com/hupe1980/cellknn/tensor"
)

// Result is the outcome of one Query call. See neighbors.Result for the
// shape rules of each view.
type Result = neighbors.Result

// KNN is a built nearest-neighbor graph over one embedding matrix,
// paired with per-observation metadata. It is created fully built:
// New fetches the matrix, indexes every row, and seals the index, so
// every KNN in existence is queryable. A KNN is safe for concurrent
// queries.
type KNN struct {
	idx    index.Index
	store  metadata.Store
	query  *neighbors.Query
	useKey string
	nObs   int
	opts   options
}

// New fetches the embedding matrix named by the use key (default
// "X_pca") from src, builds the configured index backend over its rows,
// and returns a queryable KNN. Row i of the matrix becomes item ID i,
// matching row i of the metadata store.
func New(ctx context.Context, src source.Source, store metadata.Store, optFns ...Option) (*KNN, error) {
	opts := applyOptions(optFns)

	matrix, err := src.Fetch(ctx, opts.useKey)
	if err != nil {
		opts.logger.LogBuild(ctx, opts.useKey, 0, 0, err)
		return nil, err
	}

	// Checked before Flatten2D: a zero-width matrix has no last-axis
	// length to flatten around.
	if matrix.Len() == 0 {
		opts.logger.LogBuild(ctx, opts.useKey, 0, 0, index.ErrEmptyVectors)
		return nil, index.ErrEmptyVectors
	}

	matrix = matrix.Flatten2D()

	nObs, nDim := matrix.Dim(0), matrix.Dim(1)

	idx, err := newIndex(opts, nDim)
	if err != nil {
		return nil, err
	}

	for i := 0; i < nObs; i++ {
		if _, err := idx.Add(matrix.Row(i)); err != nil {
			opts.logger.LogBuild(ctx, opts.useKey, nObs, nDim, err)
			return nil, err
		}
	}

	if err := idx.Build(); err != nil {
		opts.logger.LogBuild(ctx, opts.useKey, nObs, nDim, err)
		return nil, err
	}

	opts.logger.LogBuild(ctx, opts.useKey, nObs, nDim, nil)

	return &KNN{
		idx:    idx,
		store:  store,
		useKey: opts.useKey,
		nObs:   nObs,
		opts:   opts,
		query: neighbors.NewQuery(idx, store, func(o *neighbors.Options) {
			o.K = opts.k
			o.Parallelism = opts.parallelism
			o.Logger = queryLogger(opts.logger)
		}),
	}, nil
}

func newIndex(opts options, dimension int) (index.Index, error) {
	if opts.useForest {
		return annoy.New(dimension, opts.space, opts.forestOptions...)
	}

	return hnsw.New(dimension, opts.space, opts.hnswOptions...)
}

// queryLogger exposes the wrapped slog.Logger only when debug logging
// is enabled, keeping the hot query path free of handler calls
// otherwise.
func queryLogger(l *Logger) *slog.Logger {
	if l == nil || !l.Enabled(context.Background(), slog.LevelDebug) {
		return nil
	}

	return l.Logger
}

// Query looks up the nearest neighbors of x. x may be a single vector,
// a batch [n_q, n_dim], or a multi-axis batch whose last axis is n_dim.
//
// Without options the result holds raw neighbor IDs. WithObsKey
// aggregates a metadata column over each query's neighbors and reduces
// it to majority labels; adding WithCounts returns the full count table
// instead.
func (knn *KNN) Query(ctx context.Context, x *tensor.Dense[float32], optFns ...QueryOption) (*Result, error) {
	var qo queryOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&qo)
		}
	}

	res, err := knn.query.Do(ctx, x, neighbors.CallOptions{
		K:         qo.k,
		ObsKey:    qo.obsKey,
		LabelOnly: !qo.counts,
	})

	k := qo.k
	if k <= 0 {
		k = knn.opts.k
	}

	knn.opts.logger.LogQuery(ctx, x.Len()/knn.idx.Dimension(), k, qo.obsKey, err)

	return res, err
}

// NObs returns the number of indexed observations.
func (knn *KNN) NObs() int {
	return knn.nObs
}

// NDim returns the embedding dimensionality.
func (knn *KNN) NDim() int {
	return knn.idx.Dimension()
}

// Built reports whether the index is sealed. Always true for a KNN
// returned by New; exposed for symmetry with index.Index.
func (knn *KNN) Built() bool {
	return knn.idx.Built()
}

// Index exposes the underlying index for direct lookups.
func (knn *KNN) Index() index.Index {
	return knn.idx
}

// String returns a short human-readable description.
func (knn *KNN) String() string {
	return fmt.Sprintf("k-nearest neighbor graph over %q\n\n  built: %t\n  n_obs: %d\n  n_dim: %d\n  space: %s",
		knn.useKey, knn.Built(), knn.nObs, knn.NDim(), knn.idx.Space())
}
