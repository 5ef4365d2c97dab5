package neighbors

import (
	"github.com/hupe1980/cellknn/tensor"
)

// CountTable holds per-query counts of each distinct attribute value
// among a query's k neighbors: shape [n_q, n_distinct]. The column set
// is the union of values observed across all queries, in discovery
// order (queries scanned in order, neighbor ranks within a query in
// order). Missing combinations are 0, never absent.
type CountTable struct {
	columns  []string
	colIndex map[string]int
	counts   *tensor.Dense[int]
}

// Columns returns the distinct attribute values, in discovery order.
func (ct *CountTable) Columns() []string {
	out := make([]string, len(ct.columns))
	copy(out, ct.columns)
	return out
}

// Counts returns the [n_q, n_distinct] count tensor.
func (ct *CountTable) Counts() *tensor.Dense[int] { return ct.counts }

// NumQueries returns the number of queries counted.
func (ct *CountTable) NumQueries() int { return ct.counts.Dim(0) }

// At returns the count of value among query q's neighbors. Unknown
// values count as 0.
func (ct *CountTable) At(q int, value string) int {
	c, ok := ct.colIndex[value]
	if !ok {
		return 0
	}
	return ct.counts.At(q, c)
}

// Labels returns the per-query majority value: the column with the
// maximum count. Ties resolve to the first such column in the table's
// column order; that order is implementation-defined (it follows value
// discovery, not a canonical sort), so tie results are not guaranteed
// stable across implementations.
func (ct *CountTable) Labels() []string {
	nq := ct.counts.Dim(0)

	labels := make([]string, nq)
	for q := 0; q < nq; q++ {
		row := ct.counts.Row(q)
		best := 0
		for c, n := range row {
			if n > row[best] {
				best = c
			}
		}
		labels[q] = ct.columns[best]
	}

	return labels
}

// Counter computes attribute counts over one attribute table. Both
// derived views are memoized; use a fresh Counter per attribute table
// rather than mutating one in place.
type Counter struct {
	attr   *tensor.Dense[string]
	counts *CountTable
	labels []string
}

// NewCounter creates a Counter over an attribute table of shape
// [k, n_q].
func NewCounter(attr *tensor.Dense[string]) *Counter {
	return &Counter{attr: attr}
}

// Counts tallies, for each query, the occurrences of each distinct
// value across the query's k neighbor attributes.
func (c *Counter) Counts() *CountTable {
	if c.counts != nil {
		return c.counts
	}

	k := c.attr.Dim(0)
	nq := c.attr.Dim(1)

	// First pass: discover the column set in order.
	colIndex := make(map[string]int)
	var columns []string
	for q := 0; q < nq; q++ {
		for r := 0; r < k; r++ {
			v := c.attr.At(r, q)
			if _, ok := colIndex[v]; !ok {
				colIndex[v] = len(columns)
				columns = append(columns, v)
			}
		}
	}

	counts, err := tensor.New[int](nq, len(columns))
	if err != nil {
		// Unreachable: the attribute table is never empty here.
		panic(err)
	}
	for q := 0; q < nq; q++ {
		row := counts.Row(q)
		for r := 0; r < k; r++ {
			row[colIndex[c.attr.At(r, q)]]++
		}
	}

	c.counts = &CountTable{
		columns:  columns,
		colIndex: colIndex,
		counts:   counts,
	}

	return c.counts
}

// Labels returns the per-query majority value.
func (c *Counter) Labels() []string {
	if c.labels == nil {
		c.labels = c.Counts().Labels()
	}
	return c.labels
}
