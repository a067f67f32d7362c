// SPDX-License-Identifier: MIT
// Package expr: sentinel error set (unified, consistent).
// This file defines ONLY package-level sentinel errors used across the expr
// package. All operations MUST return these sentinels and tests MUST check
// them via errors.Is. Panics are reserved for programmer errors in private
// helpers (if any).

package expr

import "errors"

// Every message is prefixed with "expr: ..." so failures grep cleanly in
// logs. Do not %w-wrap these sentinels when returning directly; if context is
// essential, wrap with fmt.Errorf("ctx: %w", ErrX) at the outer boundary —
// callers still match with errors.Is.

var (
	// ErrBadShape is returned when a requested shape is invalid (r<=0 or c<=0).
	ErrBadShape = errors.New("expr: invalid shape")

	// ErrOutOfRange indicates a row or column index outside valid bounds.
	// Public indexers (At/Set/RowView) return this, they never panic.
	ErrOutOfRange = errors.New("expr: index out of range")

	// ErrDimensionMismatch indicates incompatible lengths between paired
	// structures, e.g. a Frame column shorter than the frame, or var names
	// not matching the matrix width.
	ErrDimensionMismatch = errors.New("expr: dimension mismatch")

	// ErrNaNInf signals a NaN or ±Inf value where finite values are required.
	ErrNaNInf = errors.New("expr: NaN or Inf encountered")

	// ErrNilMatrix indicates a nil *Dense or *Matrix receiver or argument.
	ErrNilMatrix = errors.New("expr: nil matrix")

	// ErrNilFrame indicates a nil *Frame receiver or argument.
	ErrNilFrame = errors.New("expr: nil frame")

	// ErrUnknownColumn indicates a Frame column name that does not exist.
	ErrUnknownColumn = errors.New("expr: unknown column")

	// ErrDuplicateColumn indicates an attempt to add a column under a name
	// already taken by a column of the other kind (string vs numeric).
	ErrDuplicateColumn = errors.New("expr: duplicate column")

	// ErrUnknownVar indicates a gene name not present in the matrix.
	ErrUnknownVar = errors.New("expr: unknown var")

	// ErrBadComponents indicates a non-positive PCA component count.
	ErrBadComponents = errors.New("expr: component count must be > 0")

	// ErrDecomposeFailed indicates the SVD behind PCA failed to converge.
	ErrDecomposeFailed = errors.New("expr: decomposition failed")

	// ErrBadInput is the catch-all for malformed loader input (ragged rows,
	// missing header, non-numeric cell where a number is required).
	ErrBadInput = errors.New("expr: malformed input")
)
