package neighbors

import (
	"testing"

	"github.com/hupe1980/cellknn/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// attrTable builds a [k, n_q] attribute table from per-query attribute
// columns, mirroring the mapper's output layout.
func attrTable(t *testing.T, queries ...[]string) *tensor.Dense[string] {
	t.Helper()

	byQuery, err := tensor.FromRows(queries)
	require.NoError(t, err)

	return byQuery.Transpose()
}

func TestCounts(t *testing.T) {
	attr := attrTable(t,
		[]string{"A", "A", "B"},
		[]string{"B", "B", "B"},
		[]string{"C", "A", "B"},
	)

	ct := NewCounter(attr).Counts()

	// Union of values in discovery order: query 0 contributes A, B;
	// query 2 contributes C.
	assert.Equal(t, []string{"A", "B", "C"}, ct.Columns())
	assert.Equal(t, 3, ct.NumQueries())

	assert.Equal(t, 2, ct.At(0, "A"))
	assert.Equal(t, 1, ct.At(0, "B"))
	assert.Equal(t, 0, ct.At(0, "C"))

	assert.Equal(t, 0, ct.At(1, "A"))
	assert.Equal(t, 3, ct.At(1, "B"))

	assert.Equal(t, 1, ct.At(2, "A"))
	assert.Equal(t, 1, ct.At(2, "B"))
	assert.Equal(t, 1, ct.At(2, "C"))

	// Unknown value counts as zero.
	assert.Equal(t, 0, ct.At(0, "Z"))
}

func TestCountRowSumsEqualK(t *testing.T) {
	attr := attrTable(t,
		[]string{"A", "B", "A", "C"},
		[]string{"C", "C", "C", "C"},
	)

	ct := NewCounter(attr).Counts()

	for q := 0; q < ct.NumQueries(); q++ {
		sum := 0
		for _, n := range ct.Counts().Row(q) {
			sum += n
		}
		assert.Equal(t, 4, sum, "query %d", q)
	}
}

func TestLabelsMajority(t *testing.T) {
	attr := attrTable(t,
		[]string{"A", "A", "B"},
		[]string{"B", "B", "A"},
	)

	labels := NewCounter(attr).Labels()
	assert.Equal(t, []string{"A", "B"}, labels)
}

func TestLabelsTieBreak(t *testing.T) {
	// Query 1 ties B and A at 1 each; B was discovered first (query 0,
	// rank 0), so the tie resolves to B.
	attr := attrTable(t,
		[]string{"B", "B"},
		[]string{"B", "A"},
	)

	labels := NewCounter(attr).Labels()
	assert.Equal(t, []string{"B", "B"}, labels)
}

func TestCounterMemoizes(t *testing.T) {
	attr := attrTable(t, []string{"A", "B"})

	c := NewCounter(attr)
	assert.Same(t, c.Counts(), c.Counts())
}
