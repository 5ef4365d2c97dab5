// Package neighbors implements the neighbor-query pipeline: batch ANN
// lookups, mapping of neighbor indices to categorical metadata, and
// per-query attribute counting with majority-vote labels.
package neighbors

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/cellknn/index"
	"github.com/hupe1980/cellknn/tensor"
)

// GraphQuery executes nearest-neighbor lookups against a built index.
type GraphQuery struct {
	// Parallelism bounds the number of concurrent lookups. Values <= 1
	// run sequentially. Concurrent reads against a built index are
	// safe; no rebuild may run concurrently.
	Parallelism int

	// Logger receives per-batch debug logging. Nil disables logging.
	Logger *slog.Logger
}

// Run queries the index with every row of queries (shape [n_q, d]) and
// collects the neighbor IDs into a [n_q, min(k, index.Len())] tensor,
// preserving query order. The call is all-or-nothing: if any lookup
// fails, no partial result is returned.
func (g *GraphQuery) Run(ctx context.Context, idx index.Index, queries *tensor.Dense[float32], k int) (*tensor.Dense[int], error) {
	if !idx.Built() {
		return nil, index.ErrNotBuilt
	}
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	nq := queries.Dim(0)
	kEff := min(k, idx.Len())
	if kEff < k && g.Logger != nil {
		g.Logger.DebugContext(ctx, "requested more neighbors than indexed items",
			"k", k,
			"n_obs", idx.Len(),
		)
	}

	out, err := tensor.New[int](nq, kEff)
	if err != nil {
		return nil, err
	}

	lookup := func(row int) error {
		results, err := idx.Search(queries.Row(row), k)
		if err != nil {
			return err
		}
		if len(results) != kEff {
			return fmt.Errorf("query %d: got %d neighbors, expected %d", row, len(results), kEff)
		}
		dst := out.Row(row)
		for i, r := range results {
			dst[i] = r.ID
		}
		return nil
	}

	if g.Parallelism > 1 {
		eg, ctx := errgroup.WithContext(ctx)
		eg.SetLimit(g.Parallelism)

		for row := 0; row < nq; row++ {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return lookup(row)
			})
		}

		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		for row := 0; row < nq; row++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := lookup(row); err != nil {
				return nil, err
			}
		}
	}

	if g.Logger != nil {
		g.Logger.DebugContext(ctx, "graph query completed",
			"queries", nq,
			"k", kEff,
		)
	}

	return out, nil
}
