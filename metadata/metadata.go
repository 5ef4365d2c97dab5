// Package metadata provides the per-item categorical metadata store
// consulted when aggregating attributes over query neighbors.
//
// Values are interned per column: each column keeps a dictionary of
// distinct values, a dense code per row, and a roaring posting bitmap
// per distinct value. Row identity matches item identity in the ANN
// index (row i describes item i).
package metadata

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrUnknownColumn indicates that a requested column is not part of the
// store's schema.
type ErrUnknownColumn struct {
	Column string
}

func (e *ErrUnknownColumn) Error() string {
	return fmt.Sprintf("unknown metadata column: %q", e.Column)
}

// ErrRowOutOfRange indicates a row ID outside the store.
type ErrRowOutOfRange struct {
	Row  int
	Rows int
}

func (e *ErrRowOutOfRange) Error() string {
	return fmt.Sprintf("row %d out of range (store has %d rows)", e.Row, e.Rows)
}

// Store is the read interface the neighbor pipeline depends on.
type Store interface {
	// Columns returns the schema's column names.
	Columns() []string

	// HasColumn reports whether the schema contains the column.
	HasColumn(column string) bool

	// SelectRows returns the column's value for each given row ID, in
	// input order. Fails with *ErrUnknownColumn or *ErrRowOutOfRange.
	SelectRows(column string, ids []int) ([]string, error)
}

type column struct {
	codes    []uint32
	dict     []string
	lookup   map[string]uint32
	postings []*roaring.Bitmap
}

// Table is an in-memory columnar implementation of Store.
type Table struct {
	rows    int
	order   []string
	columns map[string]*column
}

// NewTable creates an empty table with a fixed row count.
func NewTable(rows int) *Table {
	return &Table{
		rows:    rows,
		columns: make(map[string]*column),
	}
}

// AddColumn adds a categorical column. values must have exactly one
// entry per row. Re-adding an existing column replaces it.
func (t *Table) AddColumn(name string, values []string) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d values, expected %d", name, len(values), t.rows)
	}

	col := &column{
		codes:  make([]uint32, len(values)),
		lookup: make(map[string]uint32),
	}

	for i, v := range values {
		code, ok := col.lookup[v]
		if !ok {
			code = uint32(len(col.dict))
			col.lookup[v] = code
			col.dict = append(col.dict, v)
			col.postings = append(col.postings, roaring.New())
		}
		col.codes[i] = code
		col.postings[code].Add(uint32(i))
	}

	if _, exists := t.columns[name]; !exists {
		t.order = append(t.order, name)
	}
	t.columns[name] = col

	return nil
}

// Rows returns the number of rows in the table.
func (t *Table) Rows() int { return t.rows }

// Columns returns the schema's column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// HasColumn reports whether the schema contains the column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// SelectRows returns the column's value for each given row ID, in input
// order.
func (t *Table) SelectRows(name string, ids []int) ([]string, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, &ErrUnknownColumn{Column: name}
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		if id < 0 || id >= t.rows {
			return nil, &ErrRowOutOfRange{Row: id, Rows: t.rows}
		}
		out[i] = col.dict[col.codes[id]]
	}

	return out, nil
}

// Distinct returns the column's distinct values in first-seen order.
func (t *Table) Distinct(name string) ([]string, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, &ErrUnknownColumn{Column: name}
	}

	out := make([]string, len(col.dict))
	copy(out, col.dict)
	return out, nil
}

// ValueCounts returns the number of rows per distinct value.
func (t *Table) ValueCounts(name string) (map[string]uint64, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, &ErrUnknownColumn{Column: name}
	}

	out := make(map[string]uint64, len(col.dict))
	for code, value := range col.dict {
		out[value] = col.postings[code].GetCardinality()
	}

	return out, nil
}

// MatchingRows returns the bitmap of row IDs whose column equals value.
// The returned bitmap is a copy and safe to mutate.
func (t *Table) MatchingRows(name, value string) (*roaring.Bitmap, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, &ErrUnknownColumn{Column: name}
	}

	code, ok := col.lookup[value]
	if !ok {
		return roaring.New(), nil
	}

	return col.postings[code].Clone(), nil
}
