package neighbors

import (
	"context"
	"testing"

	"github.com/hupe1980/cellknn/index"
	"github.com/hupe1980/cellknn/index/annoy"
	"github.com/hupe1980/cellknn/metadata"
	"github.com/hupe1980/cellknn/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClusterQuery(t *testing.T) *Query {
	t.Helper()

	return NewQuery(buildClusterIndex(t), newLabelStore(t))
}

func TestDoRawNeighbors(t *testing.T) {
	q := newClusterQuery(t)

	x, err := tensor.FromRows([][]float32{{0, 0}, {5, 5}})
	require.NoError(t, err)

	res, err := q.Do(context.Background(), x, CallOptions{K: 2})
	require.NoError(t, err)

	require.Equal(t, KindNeighbors, res.Kind)
	require.Equal(t, []int{2, 2}, res.Neighbors.Shape())

	assert.Equal(t, 0, res.Neighbors.At(0, 0))
	assert.Contains(t, []int{1, 2}, res.Neighbors.At(0, 1))
	assert.Equal(t, 3, res.Neighbors.At(1, 0))
	assert.Equal(t, 4, res.Neighbors.At(1, 1))
}

func TestDoSingleVector(t *testing.T) {
	q := newClusterQuery(t)

	res, err := q.Do(context.Background(), tensor.FromVector([]float32{0, 0}), CallOptions{K: 2})
	require.NoError(t, err)

	require.Equal(t, KindNeighbors, res.Kind)
	assert.Equal(t, []int{1, 2}, res.Neighbors.Shape())
}

func TestDoLabels(t *testing.T) {
	q := newClusterQuery(t)

	res, err := q.Do(context.Background(), tensor.FromVector([]float32{5, 5}), CallOptions{
		K:         3,
		ObsKey:    "label",
		LabelOnly: true,
	})
	require.NoError(t, err)

	require.Equal(t, KindLabels, res.Kind)
	require.Equal(t, []int{1}, res.Labels.Shape())
	// Items 3 and 4 are "B"; whichever origin-cluster item comes third,
	// the majority among 3 neighbors is "B".
	assert.Equal(t, "B", res.Labels.At(0))
}

func TestDoCounts(t *testing.T) {
	q := newClusterQuery(t)

	x, err := tensor.FromRows([][]float32{{0, 0}, {5, 5}})
	require.NoError(t, err)

	res, err := q.Do(context.Background(), x, CallOptions{K: 3, ObsKey: "label"})
	require.NoError(t, err)

	require.Equal(t, KindCounts, res.Kind)
	ct := res.Counts
	assert.Equal(t, 2, ct.NumQueries())

	// Query 0's three nearest are items 0, 1, 2 -> labels A, A, B.
	assert.Equal(t, 2, ct.At(0, "A"))
	assert.Equal(t, 1, ct.At(0, "B"))

	// Query 1's nearest two are items 3, 4 (both B).
	assert.GreaterOrEqual(t, ct.At(1, "B"), 2)

	// Counts partition the k neighbors.
	for q := 0; q < ct.NumQueries(); q++ {
		sum := 0
		for _, n := range ct.Counts().Row(q) {
			sum += n
		}
		assert.Equal(t, 3, sum)
	}
}

func TestDoMultiAxisNeighborsRoundTrip(t *testing.T) {
	q := newClusterQuery(t)

	// A [2, 3, 2] query tensor: two grids of three 2-dim vectors.
	grid := [][][]float32{
		{{0, 0}, {1, 0}, {0, 1}},
		{{5, 5}, {5, 6}, {4, 5}},
	}
	flatData := make([]float32, 0, 12)
	for _, g := range grid {
		for _, v := range g {
			flatData = append(flatData, v...)
		}
	}
	x, err := tensor.FromSlice(flatData, 2, 3, 2)
	require.NoError(t, err)

	res, err := q.Do(context.Background(), x, CallOptions{K: 2})
	require.NoError(t, err)

	require.Equal(t, KindNeighbors, res.Kind)
	require.Equal(t, []int{2, 3, 2}, res.Neighbors.Shape())

	// Element [i,j,:] must equal the result of querying grid[i][j]
	// directly as a single query.
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			single, err := q.Do(context.Background(), tensor.FromVector(grid[i][j]), CallOptions{K: 2})
			require.NoError(t, err)

			for r := 0; r < 2; r++ {
				assert.Equal(t, single.Neighbors.At(0, r), res.Neighbors.At(i, j, r),
					"grid (%d,%d) rank %d", i, j, r)
			}
		}
	}
}

func TestDoMultiAxisLabelsShape(t *testing.T) {
	q := newClusterQuery(t)

	x, err := tensor.New[float32](2, 3, 2)
	require.NoError(t, err)

	res, err := q.Do(context.Background(), x, CallOptions{K: 3, ObsKey: "label", LabelOnly: true})
	require.NoError(t, err)

	require.Equal(t, KindLabels, res.Kind)
	// The flat label vector (length 6) is reshaped with the first
	// original axis last: [3, 2], not [2, 3].
	assert.Equal(t, []int{3, 2}, res.Labels.Shape())
}

func TestDoMultiAxisCountsStayFlat(t *testing.T) {
	q := newClusterQuery(t)

	x, err := tensor.New[float32](2, 3, 2)
	require.NoError(t, err)

	res, err := q.Do(context.Background(), x, CallOptions{K: 3, ObsKey: "label"})
	require.NoError(t, err)

	require.Equal(t, KindCounts, res.Kind)
	assert.Equal(t, 6, res.Counts.NumQueries())
}

func TestDoUnknownObsKey(t *testing.T) {
	q := newClusterQuery(t)

	_, err := q.Do(context.Background(), tensor.FromVector([]float32{0, 0}), CallOptions{
		K:      2,
		ObsKey: "celltype",
	})

	var unknown *metadata.ErrUnknownColumn
	assert.ErrorAs(t, err, &unknown)
}

func TestDoNotBuilt(t *testing.T) {
	idx, err := annoy.New(2, index.SpaceEuclidean)
	require.NoError(t, err)
	_, err = idx.Add([]float32{0, 0})
	require.NoError(t, err)

	q := NewQuery(idx, newLabelStore(t))

	_, err = q.Do(context.Background(), tensor.FromVector([]float32{0, 0}), CallOptions{K: 1})
	assert.ErrorIs(t, err, index.ErrNotBuilt)
}

func TestDoDimensionMismatch(t *testing.T) {
	q := newClusterQuery(t)

	_, err := q.Do(context.Background(), tensor.FromVector([]float32{0, 0, 0}), CallOptions{K: 1})

	var dm *index.ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 3, dm.Actual)
}

func TestDoDefaultK(t *testing.T) {
	q := NewQuery(buildClusterIndex(t), newLabelStore(t), func(o *Options) {
		o.K = 4
	})

	res, err := q.Do(context.Background(), tensor.FromVector([]float32{0, 0}), CallOptions{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 4}, res.Neighbors.Shape())
}
