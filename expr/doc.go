// SPDX-License-Identifier: MIT

// Package expr holds the annotated expression matrix the rest of the library
// computes on: a dense, row-major cells×genes matrix (Dense), an ordered
// per-cell metadata table (Frame), and the pairing of the two (Matrix).
//
// Design rules:
//
//   - Deterministic behavior: stable row order everywhere, fixed i→j loop
//     traversal, no global state. Grouping and value counts sort by an
//     explicit documented key, never by map iteration order.
//   - Sentinel errors only ("expr: ..." prefixed); public APIs never panic on
//     user-triggered conditions. Check with errors.Is.
//   - Flat backing buffers: Dense stores r*c float64 in row-major order and
//     exposes RowView for zero-copy kernels.
//
// The transforms (Log1p, ScaleColumns, PCA) return copies; the input matrix
// is never mutated. PCA is a thin SVD over column-centered data (gonum).
package expr
