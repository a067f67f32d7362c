// SPDX-License-Identifier: MIT

// Package expr: Dense is the row-major cells×genes matrix every kernel in
// this library runs on. It stores elements in a flat slice for cache
// friendliness and exposes RowView for zero-copy per-cell access.

package expr

import (
	"fmt"
	"math"
)

// denseErrorf wraps an underlying error with Dense method context.
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// Dense is a row-major matrix of float64 values.
// r is rows (cells), c is columns (genes), data holds r*c elements.
type Dense struct {
	r, c int
	data []float64 // flat backing storage, length == r*c
}

// NewDense creates an r×c Dense matrix initialized to zeros.
// Complexity: O(r*c) time and memory.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrBadShape
	}

	return &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}, nil
}

// NewDenseData creates an r×c Dense over a copy of data (row-major,
// len == rows*cols). Finite values are enforced: NaN/±Inf yield ErrNaNInf.
func NewDenseData(rows, cols int, data []float64) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrBadShape
	}
	if len(data) != rows*cols {
		return nil, ErrDimensionMismatch
	}
	buf := make([]float64, len(data))
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNaNInf
		}
		buf[i] = v
	}

	return &Dense{r: rows, c: cols, data: buf}, nil
}

// Rows returns the number of rows (cells). O(1).
func (m *Dense) Rows() int { return m.r }

// Cols returns the number of columns (genes). O(1).
func (m *Dense) Cols() int { return m.c }

// indexOf computes the flat index for (row, col) or returns ErrOutOfRange.
func (m *Dense) indexOf(method string, row, col int) (int, error) {
	if row < 0 || row >= m.r {
		return 0, denseErrorf(method, row, col, ErrOutOfRange)
	}
	if col < 0 || col >= m.c {
		return 0, denseErrorf(method, row, col, ErrOutOfRange)
	}

	return row*m.c + col, nil
}

// At retrieves the element at (row, col).
func (m *Dense) At(row, col int) (float64, error) {
	idx, err := m.indexOf("At", row, col)
	if err != nil {
		return 0, err
	}

	return m.data[idx], nil
}

// Set assigns value v at (row, col). NaN/±Inf are rejected with ErrNaNInf.
func (m *Dense) Set(row, col int, v float64) error {
	idx, err := m.indexOf("Set", row, col)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return denseErrorf("Set", row, col, ErrNaNInf)
	}
	m.data[idx] = v

	return nil
}

// RowView returns the backing slice of row i — a live view, not a copy.
// Callers must not grow it; writing through it is allowed and intentional
// for tight kernels.
func (m *Dense) RowView(i int) ([]float64, error) {
	if i < 0 || i >= m.r {
		return nil, denseErrorf("RowView", i, 0, ErrOutOfRange)
	}

	return m.data[i*m.c : (i+1)*m.c], nil
}

// Clone returns a deep copy. O(r*c).
func (m *Dense) Clone() *Dense {
	buf := make([]float64, len(m.data))
	copy(buf, m.data)

	return &Dense{r: m.r, c: m.c, data: buf}
}

// SubsetRows returns a new Dense holding the given rows, in the given order.
// Duplicate indices are allowed (they copy the row twice).
func (m *Dense) SubsetRows(rows []int) (*Dense, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	if len(rows) == 0 {
		return nil, ErrBadShape
	}
	out := &Dense{r: len(rows), c: m.c, data: make([]float64, len(rows)*m.c)}
	for i, src := range rows {
		if src < 0 || src >= m.r {
			return nil, denseErrorf("SubsetRows", src, 0, ErrOutOfRange)
		}
		copy(out.data[i*m.c:(i+1)*m.c], m.data[src*m.c:(src+1)*m.c])
	}

	return out, nil
}

// SubsetCols returns a new Dense holding the given columns, in the given order.
func (m *Dense) SubsetCols(cols []int) (*Dense, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	if len(cols) == 0 {
		return nil, ErrBadShape
	}
	out := &Dense{r: m.r, c: len(cols), data: make([]float64, m.r*len(cols))}
	for _, src := range cols {
		if src < 0 || src >= m.c {
			return nil, denseErrorf("SubsetCols", 0, src, ErrOutOfRange)
		}
	}
	for i := 0; i < m.r; i++ {
		srcRow := m.data[i*m.c : (i+1)*m.c]
		dstRow := out.data[i*len(cols) : (i+1)*len(cols)]
		for j, src := range cols {
			dstRow[j] = srcRow[src]
		}
	}

	return out, nil
}

// MeanRows returns the column-wise mean over the given rows (a centroid).
// Empty rows yield ErrBadShape.
func (m *Dense) MeanRows(rows []int) ([]float64, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	if len(rows) == 0 {
		return nil, ErrBadShape
	}
	mean := make([]float64, m.c)
	for _, src := range rows {
		if src < 0 || src >= m.r {
			return nil, denseErrorf("MeanRows", src, 0, ErrOutOfRange)
		}
		row := m.data[src*m.c : (src+1)*m.c]
		for j, v := range row {
			mean[j] += v
		}
	}
	inv := 1.0 / float64(len(rows))
	for j := range mean {
		mean[j] *= inv
	}

	return mean, nil
}

// Raw exposes the flat backing slice (row-major). Reserved for kernels inside
// this module; treat as read-only elsewhere.
func (m *Dense) Raw() []float64 { return m.data }

// String implements fmt.Stringer for debugging. O(r*c).
func (m *Dense) String() string {
	var s string
	for i := 0; i < m.r; i++ {
		s += "["
		for j := 0; j < m.c; j++ {
			s += fmt.Sprintf("%g", m.data[i*m.c+j])
			if j < m.c-1 {
				s += ", "
			}
		}
		s += "]\n"
	}

	return s
}
