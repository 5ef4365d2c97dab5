package annoy

import (
	"math/rand"
	"testing"

	"github.com/hupe1980/cellknn/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildForest(t *testing.T, vectors [][]float32, space index.Space, optFns ...func(o *Options)) *Forest {
	t.Helper()

	f, err := New(len(vectors[0]), space, optFns...)
	require.NoError(t, err)

	for i, v := range vectors {
		id, err := f.Add(v)
		require.NoError(t, err)
		require.Equal(t, i, id)
	}

	require.NoError(t, f.Build())

	return f
}

func TestLifecycleErrors(t *testing.T) {
	f, err := New(2, index.SpaceEuclidean)
	require.NoError(t, err)

	_, err = f.Add([]float32{1, 2, 3})
	var dm *index.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)

	_, err = f.Search([]float32{0, 0}, 1)
	assert.ErrorIs(t, err, index.ErrNotBuilt)

	assert.ErrorIs(t, f.Build(), index.ErrEmptyVectors)

	_, err = f.Add([]float32{0, 0})
	require.NoError(t, err)
	require.NoError(t, f.Build())

	assert.ErrorIs(t, f.Build(), index.ErrAlreadyBuilt)

	_, err = f.Add([]float32{1, 1})
	assert.ErrorIs(t, err, index.ErrAlreadyBuilt)
}

func TestSearchNearest(t *testing.T) {
	f := buildForest(t, [][]float32{
		{0, 0}, {1, 0}, {0, 1}, {5, 5}, {5, 6},
	}, index.SpaceEuclidean)

	results, err := f.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 0, results[0].ID)
	assert.Contains(t, []int{1, 2}, results[1].ID)

	// The far cluster never shows up in the top 2.
	for _, r := range results {
		assert.NotContains(t, []int{3, 4}, r.ID)
	}
}

func TestSearchFewerThanK(t *testing.T) {
	f := buildForest(t, [][]float32{{0, 0}, {1, 1}}, index.SpaceEuclidean)

	results, err := f.Search([]float32{0, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchInvalidArgs(t *testing.T) {
	f := buildForest(t, [][]float32{{0, 0}, {1, 1}}, index.SpaceEuclidean)

	_, err := f.Search([]float32{0, 0}, 0)
	assert.ErrorIs(t, err, index.ErrInvalidK)

	_, err = f.Search([]float32{0}, 1)
	var dm *index.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}

func TestSearchNoDuplicatesAndRange(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	vectors := make([][]float32, 300)
	for i := range vectors {
		vectors[i] = []float32{rng.Float32(), rng.Float32(), rng.Float32()}
	}

	f := buildForest(t, vectors, index.SpaceEuclidean)

	for trial := 0; trial < 10; trial++ {
		q := []float32{rng.Float32(), rng.Float32(), rng.Float32()}

		results, err := f.Search(q, 15)
		require.NoError(t, err)
		require.Len(t, results, 15)

		seen := make(map[int]bool)
		for i, r := range results {
			assert.GreaterOrEqual(t, r.ID, 0)
			assert.Less(t, r.ID, len(vectors))
			assert.False(t, seen[r.ID])
			seen[r.ID] = true
			if i > 0 {
				assert.GreaterOrEqual(t, r.Distance, results[i-1].Distance)
			}
		}
	}
}

func TestSelfRecall(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	vectors := make([][]float32, 400)
	for i := range vectors {
		vectors[i] = []float32{rng.Float32(), rng.Float32(), rng.Float32(), rng.Float32()}
	}

	f := buildForest(t, vectors, index.SpaceEuclidean, func(o *Options) {
		o.NumTrees = 15
	})

	hits := 0
	trials := 25
	for trial := 0; trial < trials; trial++ {
		id := rng.Intn(len(vectors))

		results, err := f.Search(vectors[id], 1)
		require.NoError(t, err)
		require.Len(t, results, 1)

		if results[0].Distance == 0 {
			hits++
		}
	}

	assert.GreaterOrEqual(t, hits, trials*9/10)
}

func TestReproducibleBuild(t *testing.T) {
	vectors := [][]float32{{0, 0}, {1, 0}, {0, 1}, {2, 2}, {3, 3}, {4, 4}}

	f1 := buildForest(t, vectors, index.SpaceEuclidean, func(o *Options) { o.Seed = 99 })
	f2 := buildForest(t, vectors, index.SpaceEuclidean, func(o *Options) { o.Seed = 99 })

	r1, err := f1.Search([]float32{0.1, 0.1}, 3)
	require.NoError(t, err)
	r2, err := f2.Search([]float32{0.1, 0.1}, 3)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
}
