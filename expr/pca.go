// SPDX-License-Identifier: MIT

// Package expr: PCA embeds cells into a low-dimensional space for centroid
// and neighbor computations. Implementation is a thin SVD over
// column-centered data: scores = U·Σ restricted to the leading components.

package expr

import "gonum.org/v1/gonum/mat"

// PCA projects x onto its k leading principal components and returns the
// cells×k score matrix. k is capped at min(Rows, Cols); k <= 0 yields
// ErrBadComponents. The input is not mutated.
func PCA(x *Dense, k int) (*Dense, error) {
	if x == nil {
		return nil, ErrNilMatrix
	}
	if k <= 0 {
		return nil, ErrBadComponents
	}
	r, c := x.r, x.c
	if k > c {
		k = c
	}
	if k > r {
		k = r
	}

	centered, _, err := CenterColumns(x)
	if err != nil {
		return nil, err
	}

	var svd mat.SVD
	if !svd.Factorize(mat.NewDense(r, c, centered.data), mat.SVDThin) {
		return nil, ErrDecomposeFailed
	}
	var u mat.Dense
	svd.UTo(&u)
	sigma := svd.Values(nil)

	out := &Dense{r: r, c: k, data: make([]float64, r*k)}
	for i := 0; i < r; i++ {
		for j := 0; j < k; j++ {
			out.data[i*k+j] = u.At(i, j) * sigma[j]
		}
	}

	return out, nil
}
