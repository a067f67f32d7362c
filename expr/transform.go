// SPDX-License-Identifier: MIT
// Package: expr
//
// Purpose:
//   - Provide the statistical transforms the pipeline composes: log1p
//     normalization, per-column centering, per-column z-scoring.
//   - Keep tight loops on the flat row-major buffer; fixed i→j traversal for
//     deterministic results.
//
// Exposed API:
//   - Log1p(X)          -> Y                  // ln(1+x) elementwise, copy
//   - CenterColumns(X)  -> (Xc, means)        // subtract per-column mean
//   - ScaleColumns(X)   -> (Y, means, stds)   // z-score; std=0 column → zeros

package expr

import "math"

// Log1p returns a copy with ln(1+x) applied elementwise. Negative inputs
// below -1 would produce NaN and yield ErrNaNInf instead.
func Log1p(x *Dense) (*Dense, error) {
	if x == nil {
		return nil, ErrNilMatrix
	}
	out := x.Clone()
	for i, v := range out.data {
		if v < -1 {
			return nil, ErrNaNInf
		}
		out.data[i] = math.Log1p(v)
	}

	return out, nil
}

// CenterColumns subtracts the per-column mean from every element.
// Returns the centered copy and the column means (len == Cols).
// Complexity: O(r*c) time, O(r*c) space for the output.
func CenterColumns(x *Dense) (*Dense, []float64, error) {
	if x == nil {
		return nil, nil, ErrNilMatrix
	}
	r, c := x.r, x.c
	means := make([]float64, c)
	for i := 0; i < r; i++ {
		row := x.data[i*c : (i+1)*c]
		for j, v := range row {
			means[j] += v
		}
	}
	inv := 1.0 / float64(r)
	for j := range means {
		means[j] *= inv
	}
	out := x.Clone()
	for i := 0; i < r; i++ {
		row := out.data[i*c : (i+1)*c]
		for j := range row {
			row[j] -= means[j]
		}
	}

	return out, means, nil
}

// ScaleColumns z-scores every column: subtract the mean, divide by the
// population standard deviation. Columns with zero spread become all-zero
// (degenerate genes carry no signal, they must not produce Inf).
// Returns the scaled copy, means and stds (len == Cols).
func ScaleColumns(x *Dense) (*Dense, []float64, []float64, error) {
	centered, means, err := CenterColumns(x)
	if err != nil {
		return nil, nil, nil, err
	}
	r, c := centered.r, centered.c
	stds := make([]float64, c)
	for i := 0; i < r; i++ {
		row := centered.data[i*c : (i+1)*c]
		for j, v := range row {
			stds[j] += v * v
		}
	}
	inv := 1.0 / float64(r)
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] * inv)
	}
	for i := 0; i < r; i++ {
		row := centered.data[i*c : (i+1)*c]
		for j := range row {
			if stds[j] == 0 {
				row[j] = 0
				continue
			}
			row[j] /= stds[j]
		}
	}

	return centered, means, stds, nil
}
