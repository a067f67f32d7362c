// SPDX-License-Identifier: MIT

// Package expr: Matrix pairs a Dense with its gene names and per-cell Frame.
// It is the unit the metrics and pruning packages operate on.

package expr

import "fmt"

// Matrix is an annotated expression matrix: X is cells×genes, Vars names the
// columns, Obs describes the rows. Obs.Len() == X.Rows() and
// len(Vars) == X.Cols() are construction invariants.
type Matrix struct {
	X    *Dense
	Vars []string
	Obs  *Frame

	varIdx map[string]int
}

// NewMatrix validates shapes and builds the var-name index. Duplicate var
// names keep the first occurrence in the index (later lookups resolve there).
func NewMatrix(x *Dense, vars []string, obs *Frame) (*Matrix, error) {
	if x == nil {
		return nil, ErrNilMatrix
	}
	if obs == nil {
		return nil, ErrNilFrame
	}
	if len(vars) != x.Cols() {
		return nil, fmt.Errorf("NewMatrix: %d vars for %d cols: %w", len(vars), x.Cols(), ErrDimensionMismatch)
	}
	if obs.Len() != x.Rows() {
		return nil, fmt.Errorf("NewMatrix: %d obs for %d rows: %w", obs.Len(), x.Rows(), ErrDimensionMismatch)
	}
	idx := make(map[string]int, len(vars))
	for i, v := range vars {
		if _, dup := idx[v]; !dup {
			idx[v] = i
		}
	}
	cp := make([]string, len(vars))
	copy(cp, vars)

	return &Matrix{X: x, Vars: cp, Obs: obs, varIdx: idx}, nil
}

// VarIndex returns the column index of a gene name.
func (m *Matrix) VarIndex(name string) (int, bool) {
	i, ok := m.varIdx[name]

	return i, ok
}

// SubsetVars returns a new Matrix restricted to the named genes, in the given
// order, sharing the Obs frame. Names absent from the matrix are skipped; if
// none remain the result is ErrUnknownVar.
func (m *Matrix) SubsetVars(names []string) (*Matrix, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	cols := make([]int, 0, len(names))
	kept := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		i, ok := m.varIdx[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		cols = append(cols, i)
		kept = append(kept, name)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("Matrix.SubsetVars: no names matched: %w", ErrUnknownVar)
	}
	x, err := m.X.SubsetCols(cols)
	if err != nil {
		return nil, err
	}

	return NewMatrix(x, kept, m.Obs)
}

// SubsetObs returns a new Matrix holding the given cell rows, with a freshly
// subset Obs frame.
func (m *Matrix) SubsetObs(rows []int) (*Matrix, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	x, err := m.X.SubsetRows(rows)
	if err != nil {
		return nil, err
	}
	obs, err := m.Obs.Subset(rows)
	if err != nil {
		return nil, err
	}

	return NewMatrix(x, m.Vars, obs)
}
