// Package tensor provides a minimal dense tensor: a flat backing slice
// plus an explicit shape. It covers exactly the shape mechanics the
// neighbor-query pipeline needs (flatten, reshape, row views, rank-2
// transpose) and nothing more.
package tensor

import (
	"fmt"
)

// ErrShapeMismatch indicates that a shape does not match the data length.
type ErrShapeMismatch struct {
	Shape []int
	Len   int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape %v does not match data length %d", e.Shape, e.Len)
}

// Dense is a dense row-major tensor of T.
type Dense[T any] struct {
	shape []int
	data  []T
}

// New creates a zero-valued tensor with the given shape.
func New[T any](shape ...int) (*Dense[T], error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	return &Dense[T]{shape: cloneShape(shape), data: make([]T, n)}, nil
}

// FromSlice wraps data in a tensor with the given shape.
// The data slice is used directly, not copied.
func FromSlice[T any](data []T, shape ...int) (*Dense[T], error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, &ErrShapeMismatch{Shape: cloneShape(shape), Len: len(data)}
	}
	return &Dense[T]{shape: cloneShape(shape), data: data}, nil
}

// FromRows creates a rank-2 tensor from a slice of equal-length,
// non-empty rows.
func FromRows[T any](rows [][]T) (*Dense[T], error) {
	if len(rows) == 0 {
		return nil, &ErrShapeMismatch{Shape: []int{0}, Len: 0}
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, &ErrShapeMismatch{Shape: []int{len(rows), 0}, Len: 0}
	}
	data := make([]T, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has length %d, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return &Dense[T]{shape: []int{len(rows), cols}, data: data}, nil
}

// FromVector creates a rank-1 tensor wrapping v.
func FromVector[T any](v []T) *Dense[T] {
	return &Dense[T]{shape: []int{len(v)}, data: v}
}

// Shape returns a copy of the tensor's shape.
func (d *Dense[T]) Shape() []int { return cloneShape(d.shape) }

// Rank returns the number of axes.
func (d *Dense[T]) Rank() int { return len(d.shape) }

// Dim returns the length of axis i.
func (d *Dense[T]) Dim(i int) int { return d.shape[i] }

// Len returns the total number of elements.
func (d *Dense[T]) Len() int { return len(d.data) }

// Data returns the flat row-major backing slice.
func (d *Dense[T]) Data() []T { return d.data }

// At returns the element at the given multi-index.
func (d *Dense[T]) At(idx ...int) T {
	return d.data[d.offset(idx)]
}

// Set stores v at the given multi-index.
func (d *Dense[T]) Set(v T, idx ...int) {
	d.data[d.offset(idx)] = v
}

func (d *Dense[T]) offset(idx []int) int {
	if len(idx) != len(d.shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank-%d tensor", len(idx), len(d.shape)))
	}
	off := 0
	for i, ix := range idx {
		if ix < 0 || ix >= d.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d (length %d)", ix, i, d.shape[i]))
		}
		off = off*d.shape[i] + ix
	}
	return off
}

// Row returns the i-th row of a rank-2 tensor as a view into the
// backing slice.
func (d *Dense[T]) Row(i int) []T {
	if len(d.shape) != 2 {
		panic(fmt.Sprintf("tensor: Row on rank-%d tensor", len(d.shape)))
	}
	cols := d.shape[1]
	return d.data[i*cols : (i+1)*cols]
}

// Reshape returns a tensor sharing d's data with a new shape. A single
// -1 axis is inferred from the remaining axes.
func (d *Dense[T]) Reshape(shape ...int) (*Dense[T], error) {
	out := cloneShape(shape)
	infer := -1
	known := 1
	for i, s := range out {
		switch {
		case s == -1:
			if infer >= 0 {
				return nil, fmt.Errorf("at most one axis may be -1, got %v", shape)
			}
			infer = i
		case s <= 0:
			return nil, fmt.Errorf("invalid axis length %d in shape %v", s, shape)
		default:
			known *= s
		}
	}
	if infer >= 0 {
		if known == 0 || len(d.data)%known != 0 {
			return nil, &ErrShapeMismatch{Shape: out, Len: len(d.data)}
		}
		out[infer] = len(d.data) / known
		known *= out[infer]
	}
	if known != len(d.data) {
		return nil, &ErrShapeMismatch{Shape: out, Len: len(d.data)}
	}
	return &Dense[T]{shape: out, data: d.data}, nil
}

// Flatten2D collapses all leading axes into the first axis, keeping the
// last axis intact. A rank-1 tensor becomes [1, n].
func (d *Dense[T]) Flatten2D() *Dense[T] {
	if len(d.shape) == 1 {
		return &Dense[T]{shape: []int{1, d.shape[0]}, data: d.data}
	}
	last := d.shape[len(d.shape)-1]
	return &Dense[T]{shape: []int{len(d.data) / last, last}, data: d.data}
}

// Transpose returns the transpose of a rank-2 tensor. The data is
// copied; the receiver is unchanged.
func (d *Dense[T]) Transpose() *Dense[T] {
	if len(d.shape) != 2 {
		panic(fmt.Sprintf("tensor: Transpose on rank-%d tensor", len(d.shape)))
	}
	rows, cols := d.shape[0], d.shape[1]
	out := make([]T, len(d.data))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c*rows+r] = d.data[r*cols+c]
		}
	}
	return &Dense[T]{shape: []int{cols, rows}, data: out}
}

func checkShape(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, &ErrShapeMismatch{Shape: nil, Len: 0}
	}
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return 0, fmt.Errorf("invalid axis length %d in shape %v", s, shape)
		}
		n *= s
	}
	return n, nil
}

func cloneShape(shape []int) []int {
	out := make([]int, len(shape))
	copy(out, shape)
	return out
}
