package neighbors

import (
	"context"
	"log/slog"

	"github.com/hupe1980/cellknn/index"
	"github.com/hupe1980/cellknn/metadata"
	"github.com/hupe1980/cellknn/tensor"
)

// ResultKind identifies which view a Result carries.
type ResultKind int

const (
	// KindNeighbors is a raw neighbor-index tensor.
	KindNeighbors ResultKind = iota
	// KindCounts is a per-query attribute count table.
	KindCounts
	// KindLabels is a per-query majority-label tensor.
	KindLabels
)

// Result is the outcome of one neighbor query. Exactly one of the
// three views is populated, indicated by Kind.
type Result struct {
	Kind ResultKind

	// Neighbors holds neighbor item IDs. Shape [n_q, k] for single and
	// batch queries; for multi-axis queries the original leading axes
	// are restored, i.e. [axis_0, ..., axis_m, k].
	Neighbors *tensor.Dense[int]

	// Counts holds the [n_q, n_distinct] count table. Multi-axis
	// queries are not reshaped beyond flattening: n_q is the product of
	// all leading axes.
	Counts *CountTable

	// Labels holds majority labels. Shape [n_q] for single and batch
	// queries. For multi-axis queries the flat label vector is reshaped
	// to [n_q_total/axis_0, axis_0]: the first original axis becomes
	// the last. This transpose-like layout is preserved for
	// compatibility with the original pipeline; do not rely on it
	// generalizing meaningfully beyond rank-3 queries.
	Labels *tensor.Dense[string]
}

// Options configures a Query.
type Options struct {
	// K is the default number of neighbors per query.
	K int

	// Parallelism bounds concurrent index lookups for batch queries.
	Parallelism int

	// Logger receives structured debug logging. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options for Query.
var DefaultOptions = Options{
	K:           20,
	Parallelism: 1,
}

// CallOptions configures a single Do invocation.
type CallOptions struct {
	// K overrides the query's default neighbor count when positive.
	K int

	// ObsKey names the metadata column to aggregate over the neighbors.
	// Empty returns raw neighbor indices.
	ObsKey string

	// LabelOnly reduces the count table to per-query majority labels.
	// Ignored when ObsKey is empty.
	LabelOnly bool
}

// Query orchestrates the pipeline for one built index and metadata
// store. It holds no per-call state: every Do call computes its
// attribute table and counter fresh, so results never leak between
// calls. A Query may be reused for any number of calls.
type Query struct {
	idx   index.Index
	store metadata.Store
	nDim  int
	opts  Options
	graph *GraphQuery
}

// NewQuery creates a Query bound to a built index and a metadata store.
func NewQuery(idx index.Index, store metadata.Store, optFns ...func(o *Options)) *Query {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Query{
		idx:   idx,
		store: store,
		nDim:  idx.Dimension(),
		opts:  opts,
		graph: &GraphQuery{Parallelism: opts.Parallelism, Logger: opts.Logger},
	}
}

// Do executes one neighbor query.
//
// x may be a single vector (rank 1), a batch [n_q, n_dim] (rank 2), or
// a multi-axis batch of rank >= 3 whose last axis equals n_dim.
// Multi-axis batches are flattened to [n_q_total, n_dim] before
// querying and the result is reshaped back per the Result field docs.
func (q *Query) Do(ctx context.Context, x *tensor.Dense[float32], call CallOptions) (*Result, error) {
	if !q.idx.Built() {
		return nil, index.ErrNotBuilt
	}

	k := call.K
	if k <= 0 {
		k = q.opts.K
	}

	origShape := x.Shape()
	lastAxis := origShape[len(origShape)-1]
	multiAxis := x.Rank() > 2 && lastAxis == q.nDim

	if lastAxis != q.nDim {
		return nil, &index.ErrDimensionMismatch{Expected: q.nDim, Actual: lastAxis}
	}

	flat := x.Flatten2D()

	if q.opts.Logger != nil {
		q.opts.Logger.DebugContext(ctx, "neighbor query",
			"shape", origShape,
			"multi_axis", multiAxis,
			"obs_key", call.ObsKey,
			"label_only", call.LabelOnly,
		)
	}

	nn, err := q.graph.Run(ctx, q.idx, flat, k)
	if err != nil {
		return nil, err
	}

	if call.ObsKey == "" {
		if multiAxis {
			shape := append(origShape[:len(origShape)-1:len(origShape)-1], nn.Dim(1))
			nn, err = nn.Reshape(shape...)
			if err != nil {
				return nil, err
			}
		}
		return &Result{Kind: KindNeighbors, Neighbors: nn}, nil
	}

	if !q.store.HasColumn(call.ObsKey) {
		return nil, &metadata.ErrUnknownColumn{Column: call.ObsKey}
	}

	attr, err := MapAttributes(q.store, nn, call.ObsKey)
	if err != nil {
		return nil, err
	}

	counter := NewCounter(attr)

	if !call.LabelOnly {
		return &Result{Kind: KindCounts, Counts: counter.Counts()}, nil
	}

	labels := tensor.FromVector(counter.Labels())
	if multiAxis {
		labels, err = labels.Reshape(-1, origShape[0])
		if err != nil {
			return nil, err
		}
	}

	return &Result{Kind: KindLabels, Labels: labels}, nil
}
