package neighbors

import (
	"github.com/hupe1980/cellknn/metadata"
	"github.com/hupe1980/cellknn/tensor"
)

// MapAttributes looks up the obsKey metadata value of every neighbor in
// the [n_q, k] neighbor matrix and returns the attribute table with
// shape [k, n_q]: rows are neighbor ranks, columns are queries. The
// transpose relative to the neighbor matrix is intentional: downstream
// counting treats each query as a column.
func MapAttributes(store metadata.Store, neighbors *tensor.Dense[int], obsKey string) (*tensor.Dense[string], error) {
	nq := neighbors.Dim(0)
	k := neighbors.Dim(1)

	// Row-major flatten: query 0's neighbors first, then query 1's, ...
	values, err := store.SelectRows(obsKey, neighbors.Data())
	if err != nil {
		return nil, err
	}

	byQuery, err := tensor.FromSlice(values, nq, k)
	if err != nil {
		return nil, err
	}

	return byQuery.Transpose(), nil
}
