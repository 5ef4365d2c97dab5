package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLabelTable(t *testing.T) *Table {
	t.Helper()

	table := NewTable(5)
	require.NoError(t, table.AddColumn("label", []string{"A", "A", "B", "B", "B"}))
	require.NoError(t, table.AddColumn("batch", []string{"1", "2", "1", "2", "1"}))

	return table
}

func TestSchema(t *testing.T) {
	table := newLabelTable(t)

	assert.Equal(t, []string{"label", "batch"}, table.Columns())
	assert.True(t, table.HasColumn("label"))
	assert.False(t, table.HasColumn("celltype"))
	assert.Equal(t, 5, table.Rows())
}

func TestAddColumnLengthMismatch(t *testing.T) {
	table := NewTable(3)
	assert.Error(t, table.AddColumn("label", []string{"A"}))
}

func TestSelectRows(t *testing.T) {
	table := newLabelTable(t)

	values, err := table.SelectRows("label", []int{4, 0, 4, 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "B", "B"}, values)

	_, err = table.SelectRows("celltype", []int{0})
	var unknown *ErrUnknownColumn
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "celltype", unknown.Column)

	_, err = table.SelectRows("label", []int{5})
	var oob *ErrRowOutOfRange
	assert.ErrorAs(t, err, &oob)
}

func TestDistinctAndValueCounts(t *testing.T) {
	table := newLabelTable(t)

	distinct, err := table.Distinct("label")
	require.NoError(t, err)
	// First-seen order.
	assert.Equal(t, []string{"A", "B"}, distinct)

	counts, err := table.ValueCounts("label")
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"A": 2, "B": 3}, counts)
}

func TestMatchingRows(t *testing.T) {
	table := newLabelTable(t)

	rows, err := table.MatchingRows("label", "B")
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3, 4}, rows.ToArray())

	empty, err := table.MatchingRows("label", "C")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestReadCSV(t *testing.T) {
	data := "label,batch\nA,1\nB,1\nB,2\n"

	table, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, []string{"label", "batch"}, table.Columns())

	values, err := table.SelectRows("label", []int{0, 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, values)

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}
